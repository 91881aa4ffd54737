package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("storage/facade")

// Live routes every operation to real backend handles.
type Live struct {
	name   string
	tables TableBackend
	blobs  BlobBackend
	queues QueueBackend
	files  FileBackend
	logger *slog.Logger
}

func NewLive(name string, backends Backends, logger *slog.Logger) (*Live, error) {
	if !backends.complete() {
		return nil, fmt.Errorf("%w: every backend handle is required", ErrConfigurationInvalid)
	}

	return &Live{
		name:   name,
		tables: backends.Tables,
		blobs:  backends.Blobs,
		queues: backends.Queues,
		files:  backends.Files,
		logger: logger,
	}, nil
}

func (l *Live) Name() string { return l.name }

func (l *Live) SaveRecord(ctx context.Context, table string, entity Entity) (err error) {
	ctx, span := l.startSpan(ctx, "save_record", table)
	defer func() { endSpan(span, err) }()

	partitionKey, rowKey := entity.Keys()
	if partitionKey == "" || rowKey == "" {
		return l.failRecord(table, Rejected(errors.New("partition key and row key are required")))
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return l.failRecord(table, Rejected(fmt.Errorf("marshal entity: %w", err)))
	}

	if err := l.tables.CreateTable(ctx, table); err != nil {
		return l.failRecord(table, err)
	}

	if err := l.tables.UpsertEntity(ctx, table, partitionKey, rowKey, data); err != nil {
		return l.failRecord(table, err)
	}

	return nil
}

func (l *Live) failRecord(table string, err error) error {
	err = normalize("save record", table, err)
	l.logger.Error("failed to save entity to table", "error", err, "table", table)
	return err
}

func (l *Live) UploadBlob(ctx context.Context, container, name string, content io.Reader, contentType string) (_ string, err error) {
	ctx, span := l.startSpan(ctx, "upload_blob", container+"/"+name)
	defer func() { endSpan(span, err) }()

	if err := l.blobs.CreateContainer(ctx, container); err != nil {
		return "", l.failBlob(container, name, err)
	}

	url, err := l.blobs.Upload(ctx, container, name, content, contentType)
	if err != nil {
		return "", l.failBlob(container, name, err)
	}

	return url, nil
}

func (l *Live) failBlob(container, name string, err error) error {
	err = normalize("upload blob", container+"/"+name, err)
	l.logger.Error("failed to upload blob", "error", err, "container", container, "blob", name)
	return err
}

func (l *Live) EnqueueMessage(ctx context.Context, queue, payload string) (err error) {
	ctx, span := l.startSpan(ctx, "enqueue_message", queue)
	defer func() { endSpan(span, err) }()

	if err := l.queues.CreateQueue(ctx, queue); err != nil {
		return l.failQueue(queue, err)
	}

	if err := l.queues.Enqueue(ctx, queue, payload); err != nil {
		return l.failQueue(queue, err)
	}

	return nil
}

func (l *Live) failQueue(queue string, err error) error {
	err = normalize("enqueue message", queue, err)
	l.logger.Error("failed to send message to queue", "error", err, "queue", queue)
	return err
}

func (l *Live) UploadFile(ctx context.Context, share, directory, name string, content []byte) (err error) {
	ctx, span := l.startSpan(ctx, "upload_file", share+"/"+directory+"/"+name)
	defer func() { endSpan(span, err) }()

	if err := l.files.CreateShare(ctx, share); err != nil {
		return l.failFile(share, directory, name, err)
	}

	if err := l.files.CreateDirectory(ctx, share, directory); err != nil {
		return l.failFile(share, directory, name, err)
	}

	if err := l.files.Upload(ctx, share, directory, name, content); err != nil {
		return l.failFile(share, directory, name, err)
	}

	return nil
}

func (l *Live) failFile(share, directory, name string, err error) error {
	err = normalize("upload file", share+"/"+directory+"/"+name, err)
	l.logger.Error("failed to upload file to share", "error", err, "share", share, "directory", directory, "file", name)
	return err
}

func (l *Live) EnsureContainer(ctx context.Context, container string) error {
	if err := l.blobs.CreateContainer(ctx, container); err != nil {
		return normalize("create container", container, err)
	}
	return nil
}

func (l *Live) EnsureQueue(ctx context.Context, queue string) error {
	if err := l.queues.CreateQueue(ctx, queue); err != nil {
		return normalize("create queue", queue, err)
	}
	return nil
}

func (l *Live) EnsureShare(ctx context.Context, share, directory string) error {
	if err := l.files.CreateShare(ctx, share); err != nil {
		return normalize("create share", share, err)
	}
	if err := l.files.CreateDirectory(ctx, share, directory); err != nil {
		return normalize("create directory", share+"/"+directory, err)
	}
	return nil
}

func (l *Live) EnsureTable(ctx context.Context, table string) error {
	if err := l.tables.CreateTable(ctx, table); err != nil {
		return normalize("create table", table, err)
	}
	return nil
}

func (l *Live) ListRecords(ctx context.Context, table string) ([]json.RawMessage, error) {
	records, err := l.tables.ListEntities(ctx, table)
	if err != nil {
		return nil, normalize("list records", table, err)
	}
	return records, nil
}

func (l *Live) ListFiles(ctx context.Context, share, directory string) ([]string, error) {
	files, err := l.files.ListFiles(ctx, share, directory)
	if err != nil {
		return nil, normalize("list files", share+"/"+directory, err)
	}
	return files, nil
}

func (l *Live) QueueDepth(ctx context.Context, queue string) (int, error) {
	depth, err := l.queues.ApproximateDepth(ctx, queue)
	if err != nil {
		return 0, normalize("queue depth", queue, err)
	}
	return depth, nil
}

func (l *Live) startSpan(ctx context.Context, op, resource string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "storage "+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("storage.backend", l.name),
			attribute.String("storage.resource", resource),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
