package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "トヨタ自動車", "トヨタ自動車"},
		{"corporate suffix", "トヨタ自動車株式会社", "トヨタ自動車"},
		{"holdings suffix", "三菱ＵＦＪホールディングス", "三菱ＵＦＪ"},
		{"hd suffix", "ソフトバンクHD", "ソフトバンク"},
		{"hd suffix lowercase", "ソフトバンクhd", "ソフトバンク"},
		{"ascii ltd", "Sony Group Co.,Ltd.", "SonyGroup"},
		{"full-width brackets", "日本郵政（株）", "日本郵政株"},
		{"middle dots and spaces", "エヌ・ティ・ティ データ", "エヌティティデータ"},
		{"full-width space", "第一生命　HD", "第一生命"},
		{"suffix only at end", "株式会社ブリヂストン", "株式会社ブリヂストン"},
		{"stacked suffixes keep inner", "野村ホールディングスHD", "野村ホールディングス"},
		{"empty", "", ""},
		{"all noise", " （）・ ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.in))
		})
	}
}

func TestNameIdempotent(t *testing.T) {
	inputs := []string{
		"トヨタ自動車株式会社",
		"日本たばこ産業",
		"エヌ・ティ・ティ データ",
		"Sony Group Co.,Ltd.",
		"",
	}
	for _, in := range inputs {
		once := Name(in)
		assert.Equal(t, once, Name(once), "Name should be idempotent for %q", in)
	}
}

func TestText(t *testing.T) {
	assert.Equal(t, "トヨタ自動車が新工場を建設", Text("トヨタ自動車が 新工場を\n建設"))
	assert.Equal(t, "ab", Text("a\t 　b"))
	assert.Equal(t, "", Text(""))
	assert.Equal(t, "", Text("  \n\t　"))
}
