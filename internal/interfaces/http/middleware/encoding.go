package middleware

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// EnsureUTF8Body 确保请求体是 UTF-8 编码的中间件
// 在 Windows 下使用 curl 时，可能会以 GBK 编码发送中文内容
// 此中间件检测并转换非 UTF-8 编码的请求体，依次尝试 GBK 和 GB18030
func EnsureUTF8Body() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 只处理有请求体的请求
		if c.Request.Body == nil || c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		// 读取原始请求体
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body.Close()

		// 空内容或已是有效 UTF-8，直接恢复
		if len(bodyBytes) == 0 || utf8.Valid(bodyBytes) {
			c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			c.Next()
			return
		}

		// 备选编码链转换，全部失败时保留原始数据
		for _, dec := range []*encoding.Decoder{
			simplifiedchinese.GBK.NewDecoder(),
			simplifiedchinese.GB18030.NewDecoder(),
		} {
			utf8Bytes, err := decodeBody(bodyBytes, dec)
			if err == nil && utf8.Valid(utf8Bytes) {
				c.Request.Body = io.NopCloser(bytes.NewReader(utf8Bytes))
				c.Request.ContentLength = int64(len(utf8Bytes))
				c.Next()
				return
			}
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		c.Next()
	}
}

// decodeBody 用指定解码器转换为 UTF-8
func decodeBody(raw []byte, dec *encoding.Decoder) ([]byte, error) {
	reader := transform.NewReader(bytes.NewReader(raw), dec)
	return io.ReadAll(reader)
}
