package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"
)

// Operations accepted by MemoryBackends.FailOn.
const (
	OpCreateTable     = "create_table"
	OpUpsertEntity    = "upsert_entity"
	OpListEntities    = "list_entities"
	OpCreateContainer = "create_container"
	OpUploadBlob      = "upload_blob"
	OpCreateQueue     = "create_queue"
	OpEnqueue         = "enqueue"
	OpQueueDepth      = "queue_depth"
	OpCreateShare     = "create_share"
	OpCreateDirectory = "create_directory"
	OpUploadFile      = "upload_file"
	OpListFiles       = "list_files"
)

type MemoryBlob struct {
	Content     []byte
	ContentType string
}

// MemoryBackends keeps every backend family in process memory. It behaves like
// the cloud services where it matters to the facade: writes to a resource that
// was never created are rejected.
type MemoryBackends struct {
	mu         sync.Mutex
	tables     map[string]map[string]json.RawMessage
	containers map[string]map[string]MemoryBlob
	queues     map[string][]string
	shares     map[string]map[string]map[string][]byte
	failures   map[string]error
}

func NewMemoryBackends() *MemoryBackends {
	return &MemoryBackends{
		tables:     make(map[string]map[string]json.RawMessage),
		containers: make(map[string]map[string]MemoryBlob),
		queues:     make(map[string][]string),
		shares:     make(map[string]map[string]map[string][]byte),
		failures:   make(map[string]error),
	}
}

func (m *MemoryBackends) Backends() Backends {
	return Backends{Tables: m, Blobs: memoryBlobs{m}, Queues: m, Files: memoryFiles{m}}
}

// FailOn makes every later call of op return err. A nil err clears the failure.
func (m *MemoryBackends) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

func (m *MemoryBackends) failure(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.failures[op]
}

func (m *MemoryBackends) CreateTable(ctx context.Context, table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(ctx, OpCreateTable); err != nil {
		return err
	}
	if _, ok := m.tables[table]; !ok {
		m.tables[table] = make(map[string]json.RawMessage)
	}
	return nil
}

func (m *MemoryBackends) UpsertEntity(ctx context.Context, table, partitionKey, rowKey string, entity []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(ctx, OpUpsertEntity); err != nil {
		return err
	}
	rows, ok := m.tables[table]
	if !ok {
		return Rejected(fmt.Errorf("table %s not found", table))
	}
	rows[partitionKey+"\x00"+rowKey] = slices.Clone(entity)
	return nil
}

func (m *MemoryBackends) ListEntities(ctx context.Context, table string) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(ctx, OpListEntities); err != nil {
		return nil, err
	}
	rows, ok := m.tables[table]
	if !ok {
		return nil, Rejected(fmt.Errorf("table %s not found", table))
	}

	keys := make([]string, 0, len(rows))
	for key := range rows {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	records := make([]json.RawMessage, 0, len(keys))
	for _, key := range keys {
		records = append(records, rows[key])
	}
	return records, nil
}

func (m *MemoryBackends) CreateQueue(ctx context.Context, queue string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(ctx, OpCreateQueue); err != nil {
		return err
	}
	if _, ok := m.queues[queue]; !ok {
		m.queues[queue] = []string{}
	}
	return nil
}

func (m *MemoryBackends) Enqueue(ctx context.Context, queue, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(ctx, OpEnqueue); err != nil {
		return err
	}
	messages, ok := m.queues[queue]
	if !ok {
		return Rejected(fmt.Errorf("queue %s not found", queue))
	}
	m.queues[queue] = append(messages, payload)
	return nil
}

func (m *MemoryBackends) ApproximateDepth(ctx context.Context, queue string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure(ctx, OpQueueDepth); err != nil {
		return 0, err
	}
	messages, ok := m.queues[queue]
	if !ok {
		return 0, Rejected(fmt.Errorf("queue %s not found", queue))
	}
	return len(messages), nil
}

// Messages returns a copy of everything enqueued on queue.
func (m *MemoryBackends) Messages(queue string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.queues[queue])
}

// Records returns a copy of every entity in table ordered by key.
func (m *MemoryBackends) Records(table string) []json.RawMessage {
	records, _ := m.ListEntities(context.Background(), table)
	return records
}

func (m *MemoryBackends) Blob(container, name string) (MemoryBlob, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blob, ok := m.containers[container][name]
	return blob, ok
}

func (m *MemoryBackends) File(share, directory, name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, ok := m.shares[share][directory][name]
	return content, ok
}

// Resources lists every created resource as "kind:name", sorted.
func (m *MemoryBackends) Resources() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for name := range m.tables {
		out = append(out, "table:"+name)
	}
	for name := range m.containers {
		out = append(out, "container:"+name)
	}
	for name := range m.queues {
		out = append(out, "queue:"+name)
	}
	for share, dirs := range m.shares {
		out = append(out, "share:"+share)
		for dir := range dirs {
			out = append(out, "directory:"+share+"/"+dir)
		}
	}
	slices.Sort(out)
	return out
}

type memoryBlobs struct{ m *MemoryBackends }

func (b memoryBlobs) CreateContainer(ctx context.Context, container string) error {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()

	if err := b.m.failure(ctx, OpCreateContainer); err != nil {
		return err
	}
	if _, ok := b.m.containers[container]; !ok {
		b.m.containers[container] = make(map[string]MemoryBlob)
	}
	return nil
}

func (b memoryBlobs) Upload(ctx context.Context, container, name string, content io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", Rejected(fmt.Errorf("read blob content: %w", err))
	}

	b.m.mu.Lock()
	defer b.m.mu.Unlock()

	if err := b.m.failure(ctx, OpUploadBlob); err != nil {
		return "", err
	}
	blobs, ok := b.m.containers[container]
	if !ok {
		return "", Rejected(fmt.Errorf("container %s not found", container))
	}
	blobs[name] = MemoryBlob{Content: data, ContentType: contentType}
	return "memory://" + container + "/" + name, nil
}

type memoryFiles struct{ m *MemoryBackends }

func (f memoryFiles) CreateShare(ctx context.Context, share string) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()

	if err := f.m.failure(ctx, OpCreateShare); err != nil {
		return err
	}
	if _, ok := f.m.shares[share]; !ok {
		f.m.shares[share] = make(map[string]map[string][]byte)
	}
	return nil
}

func (f memoryFiles) CreateDirectory(ctx context.Context, share, directory string) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()

	if err := f.m.failure(ctx, OpCreateDirectory); err != nil {
		return err
	}
	dirs, ok := f.m.shares[share]
	if !ok {
		return Rejected(fmt.Errorf("share %s not found", share))
	}
	if _, ok := dirs[directory]; !ok {
		dirs[directory] = make(map[string][]byte)
	}
	return nil
}

func (f memoryFiles) Upload(ctx context.Context, share, directory, name string, content []byte) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()

	if err := f.m.failure(ctx, OpUploadFile); err != nil {
		return err
	}
	files, ok := f.m.shares[share][directory]
	if !ok {
		return Rejected(fmt.Errorf("directory %s/%s not found", share, directory))
	}
	files[name] = bytes.Clone(content)
	return nil
}

func (f memoryFiles) ListFiles(ctx context.Context, share, directory string) ([]string, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()

	if err := f.m.failure(ctx, OpListFiles); err != nil {
		return nil, err
	}
	files, ok := f.m.shares[share][directory]
	if !ok {
		return nil, Rejected(fmt.Errorf("directory %s/%s not found", share, directory))
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
