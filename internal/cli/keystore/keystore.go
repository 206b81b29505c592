// Package keystore 读写口令加密的私钥文件
//
// 文件格式（JSON）：
//
//	{
//	  "version": 1,
//	  "id": "<uuid>",
//	  "address": "0x...",
//	  "scheme": "ethereum",
//	  "crypto": "<口令信封>",
//	  "created_at": "2006-01-02T15:04:05Z"
//	}
//
// crypto 字段是 EncryptionManager.EncryptWithPassword 的输出，自带 KDF 参数。
package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	cryptointf "github.com/weisyn/keycore/pkg/interfaces/infrastructure/crypto"
	"github.com/weisyn/keycore/pkg/types"
	"github.com/weisyn/keycore/pkg/utils/memzero"
)

// fileVersion 当前文件格式版本
const fileVersion = 1

// ErrExists 目标文件已存在
var ErrExists = errors.New("keystore 文件已存在")

// File keystore 文件内容
type File struct {
	Version   int             `json:"version"`
	ID        string          `json:"id"`
	Address   string          `json:"address"`
	Scheme    string          `json:"scheme"`
	Crypto    json.RawMessage `json:"crypto"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store 基于 EncryptionManager 的 keystore 读写
type Store struct {
	enc cryptointf.EncryptionManager
	alg types.AEADAlgorithm
}

// New 创建 Store，alg 为写入时使用的 AEAD
func New(enc cryptointf.EncryptionManager, alg types.AEADAlgorithm) *Store {
	return &Store{enc: enc, alg: alg}
}

// Save 加密私钥并写入 path，不覆盖已有文件
func (s *Store) Save(path string, password []byte, key *types.SecurePrivateKey, addr types.Address) (*File, error) {
	raw, err := key.Export()
	if err != nil {
		return nil, err
	}
	sealed, err := s.enc.EncryptWithPassword(s.alg, password, raw)
	memzero.Wipe(raw)
	if err != nil {
		return nil, fmt.Errorf("加密私钥失败: %w", err)
	}

	f := &File{
		Version:   fileVersion,
		ID:        uuid.NewString(),
		Address:   addr.String(),
		Scheme:    addr.Scheme().String(),
		Crypto:    json.RawMessage(sealed),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("编码 keystore 失败: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("创建 keystore 目录失败: %w", err)
		}
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrExists, path)
		}
		return nil, fmt.Errorf("创建 keystore 文件失败: %w", err)
	}
	if _, err := out.Write(append(data, '\n')); err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("写入 keystore 失败: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("写入 keystore 失败: %w", err)
	}
	return f, nil
}

// Read 读取文件头，不解密
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取 keystore 失败: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, types.NewCryptoError("read keystore", types.ErrMalformedInput, err)
	}
	if f.Version != fileVersion {
		return nil, types.Errorf("read keystore", types.ErrUnsupportedAlgorithm, "keystore version %d", f.Version)
	}
	if len(f.Crypto) == 0 {
		return nil, types.Errorf("read keystore", types.ErrMalformedInput, "missing crypto section")
	}
	return &f, nil
}

// Load 读取并解密私钥
//
// 口令错误返回 ErrAuthenticationFailed；调用方负责 Destroy 返回的私钥。
func (s *Store) Load(path string, password []byte) (*types.SecurePrivateKey, *File, error) {
	f, err := Read(path)
	if err != nil {
		return nil, nil, err
	}
	raw, err := s.enc.DecryptWithPassword(password, f.Crypto)
	if err != nil {
		return nil, nil, err
	}
	defer memzero.Wipe(raw)

	key, err := types.NewSecurePrivateKey(raw)
	if err != nil {
		return nil, nil, err
	}
	return key, f, nil
}
