package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMarshalJSONKeepsOrder(t *testing.T) {
	r := Record{{"zeta", 1}, {"alpha", "x"}, {"mid", true}}
	out, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":"x","mid":true}`, string(out))
}

func TestFormatterPrint(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	r := Record{{"address", "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"}, {"scheme", "ethereum"}}

	testCases := []struct {
		name   string
		format Format
		check  func(t *testing.T, out string)
	}{
		{"JSON", FormatJSON, func(t *testing.T, out string) {
			assert.Equal(t, `{"address":"0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf","scheme":"ethereum"}`+"\n", out)
		}},
		{"美化JSON", FormatPretty, func(t *testing.T, out string) {
			assert.Contains(t, out, "\n  \"scheme\": \"ethereum\"")
		}},
		{"表格", FormatTable, func(t *testing.T, out string) {
			assert.Contains(t, out, "address")
			assert.Contains(t, out, "ethereum")
		}},
		{"文本", FormatText, func(t *testing.T, out string) {
			assert.Equal(t, "address: 0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf\nscheme: ethereum\n", out)
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewFormatter(tc.format, &buf).Print(r))
			tc.check(t, buf.String())
		})
	}

	t.Run("单字段文本只输出值", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewFormatter(FormatText, &buf).Print(Record{{"digest", "abcd"}}))
		assert.Equal(t, "abcd\n", buf.String())
	})
}

func TestFormatterMessages(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var data, logs bytes.Buffer
	f := NewFormatter(FormatJSON, &data)
	f.SetLogWriter(&logs)

	f.PrintInfo("提示")
	f.PrintWarning("警告")
	assert.Contains(t, logs.String(), "提示")
	assert.Contains(t, logs.String(), "警告")
	assert.Empty(t, data.String())

	logs.Reset()
	f.SetSilent(true)
	f.PrintSuccess("成功")
	assert.Empty(t, strings.TrimSpace(logs.String()))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("table")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}
