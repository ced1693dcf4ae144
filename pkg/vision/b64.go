package vision

import (
	"encoding/base64"
	"strings"
)

// encodeB64 标准 base64 编码（推理服务约定）
func encodeB64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeImage 解码客户端上传的 base64 图像
// 兼容带 data URI 前缀的输入；解不出或为空视为坏图
func DecodeImage(imageB64 string) ([]byte, error) {
	payload := imageB64
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx >= 0 {
			payload = payload[idx+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, base64.CorruptInputError(0)
	}
	return data, nil
}
