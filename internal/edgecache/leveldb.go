package edgecache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const levelKeyPrefix = "r:"

// storedResponse 是写入 LevelDB 的 gob 记录。
type storedResponse struct {
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt int64 // unix seconds
}

// OpenLevelDB 在 path 目录打开（或创建）持久化缓存，进程重启后条目仍然可用。
func OpenLevelDB(path string) (Cache, error) {
	if path == "" {
		return nil, errors.New("cache path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve cache path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create cache path: %w", err)
	}

	db, err := leveldb.OpenFile(abs, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb: %w", err)
	}
	return &levelCache{db: db}, nil
}

type levelCache struct {
	db *leveldb.DB
}

func (c *levelCache) Match(ctx context.Context, key Key) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := c.db.Get(levelKey(key), nil)
	if err != nil {
		return nil, translateLevelErr(err)
	}

	var rec storedResponse
	if err := decodeGob(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode cached response: %w", err)
	}
	return &Response{
		Status: rec.Status,
		Header: rec.Header,
		Body:   rec.Body,
	}, nil
}

func (c *levelCache) Put(ctx context.Context, key Key, resp Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := encodeGob(storedResponse{
		Status:   resp.Status,
		Header:   resp.Header,
		Body:     resp.Body,
		StoredAt: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if err := c.db.Put(levelKey(key), encoded, nil); err != nil {
		return translateLevelErr(err)
	}
	return nil
}

func (c *levelCache) Len() int {
	it := c.db.NewIterator(util.BytesPrefix([]byte(levelKeyPrefix)), nil)
	defer it.Release()

	count := 0
	for it.Next() {
		count++
	}
	return count
}

func (c *levelCache) Close() error {
	err := c.db.Close()
	if errors.Is(err, leveldb.ErrClosed) {
		return nil
	}
	return err
}

func levelKey(key Key) []byte {
	return []byte(levelKeyPrefix + key.String())
}

func translateLevelErr(err error) error {
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, leveldb.ErrClosed):
		return ErrClosed
	default:
		return err
	}
}

func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(b []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(v)
}
