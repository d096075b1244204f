package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"gopkg.in/yaml.v3"
)

const (
	metaSuffix          = ".meta.yaml"
	fallbackContentType = "application/octet-stream"
)

// FileStoreOptions 控制磁盘资源缺少 sidecar 元数据时的默认值。
type FileStoreOptions struct {
	DefaultCacheControl string
}

// NewFileStore 以 root 为根目录构建只读为主的资源仓库，root 必须是已存在的目录。
func NewFileStore(root string, opts FileStoreOptions) (Store, error) {
	if root == "" {
		return nil, errors.New("assets path required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve assets path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat assets path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("assets path is not a directory: %s", abs)
	}

	realRoot, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve assets path: %w", err)
	}

	return &fileStore{
		root:     abs,
		realRoot: realRoot,
		opts:     opts,
		locks:    make(map[string]*entryLock),
	}, nil
}

// fileStore 通过 entryLock 避免同一 key 并发写入。
type fileStore struct {
	root string
	// realRoot 是 root 解析符号链接后的路径，用于校验链接目标不越界。
	realRoot string
	opts     FileStoreOptions

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func (s *fileStore) Get(ctx context.Context, key string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := s.entryPath(key)
	if err != nil {
		return nil, ErrNotFound
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if isMissing(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}
	if !s.withinRoot(filePath) {
		return nil, ErrNotFound
	}

	value, err := os.ReadFile(filePath)
	if err != nil {
		if isMissing(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(value) == 0 {
		return nil, ErrNotFound
	}

	meta, err := s.readMetadata(filePath)
	if err != nil {
		return nil, err
	}
	return &Record{Value: value, Metadata: meta}, nil
}

func (s *fileStore) Put(ctx context.Context, key string, rec Record) error {
	filePath, err := s.entryPath(key)
	if err != nil {
		return err
	}

	unlock := s.lockEntry(filePath)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	if err := writeAtomic(filePath, rec.Value); err != nil {
		return err
	}

	metaPath := filePath + metaSuffix
	if rec.Metadata == (Metadata{}) {
		if err := os.Remove(metaPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	encoded, err := yaml.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return writeAtomic(metaPath, encoded)
}

// readMetadata 优先读取 sidecar，缺失字段按扩展名与默认 Cache-Control 补齐。
func (s *fileStore) readMetadata(filePath string) (Metadata, error) {
	var meta Metadata
	raw, err := os.ReadFile(filePath + metaSuffix)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &meta); err != nil {
			return Metadata{}, fmt.Errorf("decode metadata for %s: %w", filePath, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Metadata{}, err
	}

	if meta.ContentType == "" {
		meta.ContentType = mime.TypeByExtension(filepath.Ext(filePath))
		if meta.ContentType == "" {
			meta.ContentType = fallbackContentType
		}
	}
	if meta.CacheControl == "" {
		meta.CacheControl = s.opts.DefaultCacheControl
	}
	return meta, nil
}

func (s *fileStore) lockEntry(key string) func() {
	s.mu.Lock()
	lock := s.locks[key]
	if lock == nil {
		lock = &entryLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// entryPath 将 key 映射到 root 下的文件路径，拒绝 sidecar 与越界路径。
func (s *fileStore) entryPath(key string) (string, error) {
	rel := key
	if decoded, err := url.PathUnescape(key); err == nil {
		rel = decoded
	}
	if strings.ContainsRune(rel, 0) {
		return "", errors.New("asset key contains NUL")
	}
	if strings.HasSuffix(rel, metaSuffix) {
		return "", errors.New("metadata sidecar is not addressable")
	}

	rel = path.Clean("/" + rel)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return "", errors.New("asset key required")
	}

	filePath := filepath.Join(s.root, filepath.FromSlash(rel))
	if !strings.HasPrefix(filePath, s.root+string(filepath.Separator)) {
		return "", errors.New("invalid asset path")
	}
	return filePath, nil
}

// withinRoot 解析 filePath 上的符号链接，链接指向 root 之外时视为不存在。
func (s *fileStore) withinRoot(filePath string) bool {
	resolved, err := filepath.EvalSymlinks(filePath)
	if err != nil {
		return false
	}
	return strings.HasPrefix(resolved, s.realRoot+string(filepath.Separator))
}

// isMissing 把无法命名文件的路径（父路径是普通文件、名称过长、非法字符）也视为资源不存在。
func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, syscall.ENOTDIR) ||
		errors.Is(err, syscall.ENAMETOOLONG) ||
		errors.Is(err, syscall.EINVAL)
}

func writeAtomic(filePath string, data []byte) error {
	tempFile, err := os.CreateTemp(filepath.Dir(filePath), ".asset-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = tempFile.Write(data)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}
