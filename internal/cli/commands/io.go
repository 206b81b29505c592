package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/term"

	"github.com/weisyn/keycore/pkg/types"
	"github.com/weisyn/keycore/pkg/utils/memzero"
)

// Prompter 读取不回显的机密输入
type Prompter interface {
	ReadSecret(prompt string) ([]byte, error)
}

// terminalPrompter 终端下关闭回显；非终端（管道）按行读取
type terminalPrompter struct {
	in    io.Reader
	out   io.Writer
	lines *bufio.Reader
}

func newTerminalPrompter(in io.Reader, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: in, out: out}
}

func (p *terminalPrompter) ReadSecret(prompt string) ([]byte, error) {
	fmt.Fprintf(p.out, "%s: ", prompt)
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return nil, fmt.Errorf("读取输入失败: %w", err)
		}
		return b, nil
	}

	if p.lines == nil {
		p.lines = bufio.NewReader(p.in)
	}
	line, err := p.lines.ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return nil, fmt.Errorf("读取输入失败: %w", err)
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

// byteEncoding 命令行上二进制数据的文本编码
type byteEncoding string

const (
	encodingHex    byteEncoding = "hex"
	encodingBase58 byteEncoding = "base58"
	encodingBase64 byteEncoding = "base64"
)

func parseEncoding(s string) (byteEncoding, error) {
	switch e := byteEncoding(strings.ToLower(s)); e {
	case encodingHex, encodingBase58, encodingBase64:
		return e, nil
	case "":
		return encodingHex, nil
	}
	return "", fmt.Errorf("未知编码 %q，支持 hex|base58|base64", s)
}

func (e byteEncoding) encode(b []byte) string {
	switch e {
	case encodingBase58:
		return base58.Encode(b)
	case encodingBase64:
		return base64.StdEncoding.EncodeToString(b)
	default:
		return hex.EncodeToString(b)
	}
}

// decode 解码输入，hex 允许 0x 前缀
func (e byteEncoding) decode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	var (
		b   []byte
		err error
	)
	switch e {
	case encodingBase58:
		b, err = base58.Decode(s)
	case encodingBase64:
		b, err = base64.StdEncoding.DecodeString(s)
	default:
		b, err = hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	}
	if err != nil {
		return nil, types.NewCryptoError("decode "+string(e), types.ErrMalformedInput, err)
	}
	return b, nil
}

// readData 读取待处理数据：--in 文件（"-" 为标准输入），否则取第一个位置参数
func (c *CLI) readData(args []string, inFile string) ([]byte, error) {
	switch {
	case inFile == "-":
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return nil, fmt.Errorf("读取标准输入失败: %w", err)
		}
		return data, nil
	case inFile != "":
		data, err := os.ReadFile(inFile)
		if err != nil {
			return nil, fmt.Errorf("读取输入文件失败: %w", err)
		}
		return data, nil
	case len(args) > 0:
		return []byte(args[0]), nil
	}
	return nil, errors.New("缺少输入：提供参数或 --in 文件")
}

// readSecretFile 读取机密文件并去掉末尾换行，调用方负责清零
func readSecretFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取机密文件失败: %w", err)
	}
	return bytes.TrimRight(data, "\r\n"), nil
}

// readSecret 优先读文件，否则提示输入
func (c *CLI) readSecret(file, prompt string) ([]byte, error) {
	if file != "" {
		return readSecretFile(file)
	}
	return c.prompter.ReadSecret(prompt)
}

// readPassword 读取已有口令：文件、--password-env、提示输入依次尝试
func (c *CLI) readPassword(file, prompt string) ([]byte, error) {
	if file == "" && c.flags.PasswordEnv != "" {
		return c.passwords.GetPassword(context.Background(), c.flags.PasswordEnv)
	}
	return c.readSecret(file, prompt)
}

// readNewPassword 读取新口令，提示输入时要求确认一次
func (c *CLI) readNewPassword(file string) ([]byte, error) {
	if file != "" {
		return readSecretFile(file)
	}
	if c.flags.PasswordEnv != "" {
		return c.passwords.GetPassword(context.Background(), c.flags.PasswordEnv)
	}
	first, err := c.prompter.ReadSecret("输入口令")
	if err != nil {
		return nil, err
	}
	second, err := c.prompter.ReadSecret("确认口令")
	if err != nil {
		memzero.Wipe(first)
		return nil, err
	}
	defer memzero.Wipe(second)
	if !c.services.Hashes.ConstantTimeCompare(first, second) {
		memzero.Wipe(first)
		return nil, errors.New("两次输入的口令不一致")
	}
	if len(first) == 0 {
		return nil, errors.New("口令不能为空")
	}
	return first, nil
}

// decodeSecret 解码文本形式的机密并清零原文
//
// hex 直接在字节上解码；其它编码会产生一份无法清零的字符串副本。
func (c *CLI) decodeSecret(text []byte) ([]byte, error) {
	defer memzero.Wipe(text)
	if c.encoding != encodingHex {
		return c.encoding.decode(string(text))
	}
	src := bytes.TrimSpace(text)
	if len(src) >= 2 && src[0] == '0' && (src[1] == 'x' || src[1] == 'X') {
		src = src[2:]
	}
	dst := make([]byte, hex.DecodedLen(len(src)))
	if _, err := hex.Decode(dst, src); err != nil {
		memzero.Wipe(dst)
		return nil, types.NewCryptoError("decode hex", types.ErrMalformedInput, err)
	}
	return dst, nil
}
