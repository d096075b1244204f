package config

import (
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
)

func TestLoadFailsWithMissingFields(t *testing.T) {
	if _, err := Load(testConfigPath(t, "missing.toml")); err == nil {
		t.Fatalf("缺失字段的配置应返回错误")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
LogLevel = "info"
ReadTimeout = "boom"

[[Site]]
Name = "docs"
Domain = "docs.local"
AssetsPath = "./public"
IndexPage = "index.html"
`
	path := writeTempConfig(t, cfg)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadRejectsSiteLevelPort(t *testing.T) {
	cfg := `
[[Site]]
Name = "docs"
Domain = "docs.local"
AssetsPath = "./public"
IndexPage = "index.html"
Port = 6000
`
	path := writeTempConfig(t, cfg)
	_, err := Load(path)
	fieldErr, ok := err.(FieldError)
	if !ok {
		t.Fatalf("站点级 Port 应返回 FieldError，得到 %v", err)
	}
	if fieldErr.Field != "Site[docs].Port" {
		t.Fatalf("字段路径不正确: %s", fieldErr.Field)
	}
}

func TestLoadRequiresSites(t *testing.T) {
	path := writeTempConfig(t, "ListenPort = 5000\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("未配置站点应失败")
	}
}

func TestDurationDecodeHookFormats(t *testing.T) {
	testCases := []struct {
		name    string
		input   interface{}
		want    time.Duration
		wantErr bool
	}{
		{name: "go duration", input: "1m30s", want: 90 * time.Second},
		{name: "numeric string", input: "1.5", want: 1500 * time.Millisecond},
		{name: "empty string", input: "", want: 0},
		{name: "int seconds", input: 20, want: 20 * time.Second},
		{name: "int64 seconds", input: int64(7), want: 7 * time.Second},
		{name: "float seconds", input: 2.5, want: 2500 * time.Millisecond},
		{name: "invalid string", input: "boom", wantErr: true},
		{name: "unsupported type", input: true, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out struct {
				Timeout Duration `mapstructure:"Timeout"`
			}
			decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				DecodeHook: durationDecodeHook(),
				Result:     &out,
			})
			if err != nil {
				t.Fatalf("创建 decoder 失败: %v", err)
			}

			err = decoder.Decode(map[string]interface{}{"Timeout": tc.input})
			if tc.wantErr {
				if err == nil {
					t.Fatalf("期望解析 %v 失败", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("解析 %v 失败: %v", tc.input, err)
			}
			if out.Timeout.DurationValue() != tc.want {
				t.Fatalf("期望 %s，得到 %s", tc.want, out.Timeout.DurationValue())
			}
		})
	}
}
