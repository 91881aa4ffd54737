package azure

import (
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/abcretail/storefront/internal/storage"
)

// classify tags an SDK error for the facade. Authentication failures and
// anything without an HTTP response are unavailability; other 4xx responses are
// rejections.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch {
		case respErr.StatusCode == http.StatusUnauthorized, respErr.StatusCode == http.StatusForbidden:
			return storage.Unavailable(err)
		case respErr.StatusCode >= 400 && respErr.StatusCode < 500:
			return storage.Rejected(err)
		}
	}

	return storage.Unavailable(err)
}

func hasErrorCode(err error, codes ...string) bool {
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return false
	}
	for _, code := range codes {
		if respErr.ErrorCode == code {
			return true
		}
	}
	return false
}
