package router

import (
	"net/url"
	"strings"
)

// ResolvePath 去掉 URL 路径开头的一个 "/"；结果为空时回退到 indexPage。
// 路径保持转义形式原样返回，不做大小写、".." 或 query 处理。
func ResolvePath(u *url.URL, indexPage string) string {
	if u == nil {
		return indexPage
	}
	p := strings.TrimPrefix(u.EscapedPath(), "/")
	if p == "" {
		return indexPage
	}
	return p
}
