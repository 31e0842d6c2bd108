package validation

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// AcceptedExtension 唯一接受的文件扩展名
const AcceptedExtension = ".xlsx"

// ValidateFileType 上传前置检查：只接受 .xlsx
func ValidateFileType(fileName string) bool {
	return strings.EqualFold(filepath.Ext(strings.TrimSpace(fileName)), AcceptedExtension)
}

// FormatFileSize 将字节数格式化为可读大小
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(sizes)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return fmt.Sprintf("%s %s", strconv.FormatFloat(v, 'f', -1, 64), sizes[i])
}
