package storage

import (
	"errors"
	"testing"
)

func TestValidateConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "empty", value: "", wantErr: true},
		{name: "blank", value: "   ", wantErr: true},
		{name: "angle bracket template", value: "DefaultEndpointsProtocol=https;AccountName=<account>", wantErr: true},
		{name: "placeholder marker", value: "AccountKey=PLACEHOLDER", wantErr: true},
		{name: "todo marker", value: "AccountKey=todo", wantErr: true},
		{name: "valid", value: "DefaultEndpointsProtocol=https;AccountName=abcretail;AccountKey=c2VjcmV0;EndpointSuffix=core.windows.net"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConnectionString(tt.value)
			if tt.wantErr && !errors.Is(err, ErrConfigurationInvalid) {
				t.Errorf("expected ErrConfigurationInvalid, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("untagged errors count as unavailable", func(t *testing.T) {
		err := normalize("enqueue message", OrderQueue, errors.New("dial tcp: refused"))
		if !errors.Is(err, ErrBackendUnavailable) {
			t.Errorf("expected ErrBackendUnavailable, got %v", err)
		}
		if errors.Is(err, ErrBackendRejected) {
			t.Error("did not expect ErrBackendRejected")
		}
	})

	t.Run("rejections keep their kind", func(t *testing.T) {
		err := normalize("save record", CustomersTable, Rejected(errors.New("invalid name")))
		if !errors.Is(err, ErrBackendRejected) {
			t.Errorf("expected ErrBackendRejected, got %v", err)
		}
	})

	t.Run("already normalized errors pass through", func(t *testing.T) {
		first := normalize("save record", CustomersTable, errors.New("boom"))
		if second := normalize("other", "other", first); second != first {
			t.Errorf("expected the same error back, got %v", second)
		}
	})
}
