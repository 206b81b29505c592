package key

import (
	"crypto/sha512"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"

	"github.com/weisyn/keycore/pkg/types"
	"github.com/weisyn/keycore/pkg/utils/memzero"
)

const (
	// DefaultDerivationPath BIP44 以太坊首个外部地址
	DefaultDerivationPath = "m/44'/60'/0'/0/0"

	// bip39SeedIterations / bip39SeedLength 助记词转种子的 PBKDF2 参数
	bip39SeedIterations = 2048
	bip39SeedLength     = 64

	// maxDerivationDepth 扩展密钥的深度字段为 uint8
	maxDerivationDepth = 255
)

// bip39SaltPrefix 种子盐前缀
var bip39SaltPrefix = []byte("mnemonic")

// ParseDerivationPath 解析 BIP32 派生路径
//
// 形如 m/44'/60'/0'/0/0，硬化标记可写作 ' 、h 或 H；
// 单个索引必须小于 2^31。
func ParseDerivationPath(path string) ([]uint32, error) {
	const op = "parse derivation path"
	path = strings.TrimSpace(path)
	segments := strings.Split(path, "/")
	if len(segments) == 0 || segments[0] != "m" {
		return nil, types.Errorf(op, types.ErrMalformedInput, "path must start with m: %q", path)
	}
	segments = segments[1:]
	if len(segments) > maxDerivationDepth {
		return nil, types.Errorf(op, types.ErrMalformedInput, "path depth %d exceeds %d", len(segments), maxDerivationDepth)
	}

	indexes := make([]uint32, 0, len(segments))
	for _, seg := range segments {
		hardened := false
		if n := len(seg); n > 0 && (seg[n-1] == '\'' || seg[n-1] == 'h' || seg[n-1] == 'H') {
			hardened = true
			seg = seg[:n-1]
		}
		v, err := strconv.ParseUint(seg, 10, 32)
		if err != nil || v >= hdkeychain.HardenedKeyStart {
			return nil, types.Errorf(op, types.ErrMalformedInput, "invalid path segment %q", seg)
		}
		idx := uint32(v)
		if hardened {
			idx += hdkeychain.HardenedKeyStart
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

// GenerateSeedPhrase 生成新的 BIP39 助记词
//
// strength 为熵位数：128、160、192、224、256，对应 12~24 个单词。
//
// 注意：go-bip39 以 string 返回助记词，该临时字符串无法被清零，
// 只能等待 GC 回收；熵与转换后的字节副本会立即清零。
func (km *KeyManager) GenerateSeedPhrase(strength int) (*types.SecureSeedPhrase, error) {
	const op = "generate seed phrase"
	if strength < 128 || strength > 256 || strength%32 != 0 {
		return nil, types.Errorf(op, types.ErrMalformedInput, "entropy strength %d not in {128,160,192,224,256}", strength)
	}

	ent, err := km.source.Bytes(strength / 8)
	if err != nil {
		return nil, types.NewCryptoError(op, types.ErrEntropyUnavailable, err)
	}
	defer memzero.Wipe(ent)

	mnemonic, err := bip39.NewMnemonic(ent)
	if err != nil {
		return nil, types.NewCryptoError(op, types.ErrMalformedInput, err)
	}
	phrase := []byte(mnemonic)
	defer memzero.Wipe(phrase)
	return types.NewSecureSeedPhrase(phrase)
}

// ImportSeedPhrase 校验并导入助记词，phrase 仍归调用方所有
func (km *KeyManager) ImportSeedPhrase(phrase []byte) (*types.SecureSeedPhrase, error) {
	return types.NewSecureSeedPhrase(phrase)
}

// DeriveFromSeedPhrase 按 BIP39 种子 + BIP32 路径派生私钥
//
// path 为空时使用默认路径。种子、中间扩展密钥均在返回前清零。
func (km *KeyManager) DeriveFromSeedPhrase(phrase *types.SecureSeedPhrase, passphrase []byte, path string) (*types.SecurePrivateKey, error) {
	const op = "derive from seed phrase"
	if phrase == nil {
		return nil, types.ErrKeyDestroyed
	}
	if path == "" {
		path = km.defaultPath
	}
	indexes, err := ParseDerivationPath(path)
	if err != nil {
		return nil, err
	}

	var out *types.SecurePrivateKey
	err = phrase.Use(func(mnemonic []byte) error {
		seed := mnemonicToSeed(mnemonic, passphrase)
		defer memzero.Wipe(seed)

		ext, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
		if err != nil {
			return types.NewCryptoError(op, types.ErrInvalidKeyFormat, err)
		}
		defer func() { ext.Zero() }()

		for _, idx := range indexes {
			child, err := ext.Derive(idx)
			if err != nil {
				// ErrInvalidChild 概率约 2^-127，调用方可换下一个索引
				return types.NewCryptoError(op, types.ErrInvalidKeyFormat, err)
			}
			ext.Zero()
			ext = child
		}

		priv, err := ext.ECPrivKey()
		if err != nil {
			return types.NewCryptoError(op, types.ErrInvalidKeyFormat, err)
		}
		defer priv.Zero()

		scalar := priv.Key.Bytes()
		defer memzero.Wipe32(&scalar)
		out, err = types.NewSecurePrivateKey(scalar[:])
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// mnemonicToSeed 计算 BIP39 种子 PBKDF2-HMAC-SHA512(mnemonic, "mnemonic"+passphrase)
//
// 全程使用字节切片，避免产生无法清零的字符串副本。
func mnemonicToSeed(mnemonic, passphrase []byte) []byte {
	salt := make([]byte, 0, len(bip39SaltPrefix)+len(passphrase))
	salt = append(salt, bip39SaltPrefix...)
	salt = append(salt, passphrase...)
	defer memzero.Wipe(salt)
	return pbkdf2.Key(mnemonic, salt, bip39SeedIterations, bip39SeedLength, sha512.New)
}
