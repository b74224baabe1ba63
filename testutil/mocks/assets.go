// =============================================================================
// 📦 MockAssetStore - 资产存储模拟实现
// =============================================================================
// 用于归档导入导出测试的内存资产存储，同时实现
// archive.DocumentAssetReader 与 archive.DocumentAssetWriter
//
// 使用方法:
//
//	assets := mocks.NewMockAssetStore().
//		WithAsset("weather.json", []byte(`{"openapi":"3.0.0"}`)).
//		WithDocument("faq.md", []byte("# FAQ"), nil)
//	res, err := exporter.Export(ctx, root, meta, assets)
// =============================================================================
package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/BaSui01/agenthub/agent/archive"
	"github.com/BaSui01/agenthub/types"
)

// WrittenAsset records one WriteAsset call.
type WrittenAsset struct {
	ID   string
	Name string
	Kind archive.AssetKind
	Data []byte
}

// AttachedDocument records one AttachDocument call.
type AttachedDocument struct {
	FileID   string
	Meta     archive.DocumentMetadata
	ImageIDs []string
}

// MockAssetStore 是资产存储的内存模拟实现
type MockAssetStore struct {
	mu sync.RWMutex

	// 读取侧
	assets   map[string][]byte
	metadata map[string]*archive.DocumentMetadata
	images   map[string][]archive.Asset

	// 写入侧
	written  []WrittenAsset
	attached []AttachedDocument
	nextID   int

	// 错误注入
	readErr   error
	writeErr  error
	attachErr error

	// 调用记录
	readCalls int
}

// =============================================================================
// 🔧 构造函数和 Builder 方法
// =============================================================================

// NewMockAssetStore 创建空的 MockAssetStore
func NewMockAssetStore() *MockAssetStore {
	return &MockAssetStore{
		assets:   make(map[string][]byte),
		metadata: make(map[string]*archive.DocumentMetadata),
		images:   make(map[string][]archive.Asset),
	}
}

// WithAsset 注册一个可读取的资产
func (m *MockAssetStore) WithAsset(name string, data []byte) *MockAssetStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[name] = data
	return m
}

// WithDocument 注册文档及其元数据，meta 为 nil 表示没有保存的元数据
func (m *MockAssetStore) WithDocument(name string, data []byte, meta *archive.DocumentMetadata, images ...archive.Asset) *MockAssetStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[name] = data
	if meta != nil {
		m.metadata[name] = meta
	}
	if len(images) > 0 {
		m.images[name] = images
	}
	return m
}

// WithReadError 设置读取错误
func (m *MockAssetStore) WithReadError(err error) *MockAssetStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
	return m
}

// WithWriteError 设置写入错误
func (m *MockAssetStore) WithWriteError(err error) *MockAssetStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
	return m
}

// WithAttachError 设置文档关联错误
func (m *MockAssetStore) WithAttachError(err error) *MockAssetStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachErr = err
	return m
}

// =============================================================================
// 📖 archive.DocumentAssetReader
// =============================================================================

// ReadAsset 读取资产，未知名称返回 ASSET_NOT_FOUND
func (m *MockAssetStore) ReadAsset(ctx context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCalls++

	if m.readErr != nil {
		return nil, m.readErr
	}
	data, ok := m.assets[name]
	if !ok {
		return nil, types.NewError(types.ErrAssetNotFound, fmt.Sprintf("asset %q not found", name))
	}
	return data, nil
}

// DocumentMetadata 返回文档元数据
func (m *MockAssetStore) DocumentMetadata(ctx context.Context, name string) (*archive.DocumentMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[name], nil
}

// DocumentImages 返回文档图片
func (m *MockAssetStore) DocumentImages(ctx context.Context, name string) ([]archive.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.images[name], nil
}

// =============================================================================
// ✍️ archive.DocumentAssetWriter
// =============================================================================

// WriteAsset 保存资产并返回顺序生成的文件 ID
func (m *MockAssetStore) WriteAsset(ctx context.Context, data []byte, suggestedName string, kind archive.AssetKind) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return "", m.writeErr
	}
	m.nextID++
	id := fmt.Sprintf("file-%03d", m.nextID)
	m.written = append(m.written, WrittenAsset{ID: id, Name: suggestedName, Kind: kind, Data: data})
	m.assets[suggestedName] = data
	return id, nil
}

// AttachDocument 记录文档与元数据、图片的关联
func (m *MockAssetStore) AttachDocument(ctx context.Context, fileID string, meta archive.DocumentMetadata, imageIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.attachErr != nil {
		return m.attachErr
	}
	m.attached = append(m.attached, AttachedDocument{FileID: fileID, Meta: meta, ImageIDs: imageIDs})
	return nil
}

// =============================================================================
// 📊 查询方法
// =============================================================================

// Written 返回所有写入记录
func (m *MockAssetStore) Written() []WrittenAsset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]WrittenAsset, len(m.written))
	copy(out, m.written)
	return out
}

// WrittenOfKind 返回指定类型的写入记录
func (m *MockAssetStore) WrittenOfKind(kind archive.AssetKind) []WrittenAsset {
	var out []WrittenAsset
	for _, w := range m.Written() {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}

// Attached 返回所有文档关联记录
func (m *MockAssetStore) Attached() []AttachedDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]AttachedDocument, len(m.attached))
	copy(out, m.attached)
	return out
}

// Names 返回所有可读取的资产名称，按字典序
func (m *MockAssetStore) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.assets))
	for name := range m.assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadCalls 返回 ReadAsset 调用次数
func (m *MockAssetStore) ReadCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.readCalls
}

// Reset 清空写入与调用记录
func (m *MockAssetStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = nil
	m.attached = nil
	m.nextID = 0
	m.readCalls = 0
}
