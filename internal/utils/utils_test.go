package utils_test

import (
	"strings"
	"testing"

	"github.com/UKHomeOffice/cop-ui/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

// TestEncryptDecrypt 测试加解密
func TestEncryptDecrypt(t *testing.T) {
	encrypted, err := utils.Encrypt("bearer-token", testKey)
	require.NoError(t, err)
	assert.NotEqual(t, "bearer-token", encrypted)

	decrypted, err := utils.Decrypt(encrypted, testKey)
	require.NoError(t, err)
	assert.Equal(t, "bearer-token", decrypted)

	_, err = utils.Decrypt(encrypted, strings.Repeat("x", 32))
	assert.Error(t, err)

	_, err = utils.Encrypt("x", "short")
	assert.Error(t, err)
}

// TestProtectToken 测试日志中的 token 保护
func TestProtectToken(t *testing.T) {
	token := "eyJhbGciOiJSUzI1NiJ9.payload.signature"

	assert.Equal(t, "eyJh****ture", utils.ProtectToken(token, ""))
	assert.Equal(t, "****", utils.MaskToken("short"))
	assert.Equal(t, "", utils.ProtectToken("", testKey))

	protected := utils.ProtectToken(token, testKey)
	decrypted, err := utils.Decrypt(protected, testKey)
	require.NoError(t, err)
	assert.Equal(t, token, decrypted)
}

// TestValidateTaskID 测试任务 ID 验证
func TestValidateTaskID(t *testing.T) {
	tests := []struct {
		id  string
		err error
	}{
		{"3f1c2a8e-0b7d-11eb-9a03-0242ac130003", nil},
		{"task_1", nil},
		{"", utils.ErrEmptyID},
		{"../etc/passwd", utils.ErrInvalidIDFormat},
		{strings.Repeat("a", 65), utils.ErrIDTooLong},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.err, utils.ValidateTaskID(tt.id), tt.id)
	}
}

// TestNormalizeSearch 测试搜索文本清理
func TestNormalizeSearch(t *testing.T) {
	s, err := utils.NormalizeSearch("  Review \x00case\n ")
	require.NoError(t, err)
	assert.Equal(t, "Review case", s)

	s, err = utils.NormalizeSearch("review_form 50%")
	require.NoError(t, err)
	assert.Equal(t, "review_form 50%", s)

	s, err = utils.NormalizeSearch("")
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = utils.NormalizeSearch(strings.Repeat("a", 256))
	assert.Equal(t, utils.ErrStringTooLong, err)
}

// TestValidateSubmitPath 测试提交路径验证
func TestValidateSubmitPath(t *testing.T) {
	assert.NoError(t, utils.ValidateSubmitPath(""))
	assert.NoError(t, utils.ValidateSubmitPath("/form/submit"))
	assert.Error(t, utils.ValidateSubmitPath("form/submit"))
	assert.Error(t, utils.ValidateSubmitPath("//evil.example.com/x"))
	assert.Error(t, utils.ValidateSubmitPath("/a/../b"))
	assert.Error(t, utils.ValidateSubmitPath("/a b"))
}

// TestParseSortBy 测试排序解析
func TestParseSortBy(t *testing.T) {
	spec, err := utils.ParseSortBy("asc-dueDate")
	require.NoError(t, err)
	assert.Equal(t, utils.SortSpec{Field: "dueDate", Order: "asc"}, spec)
	assert.Equal(t, "asc-dueDate", spec.String())

	spec, err = utils.ParseSortBy("DESC-priority")
	require.NoError(t, err)
	assert.Equal(t, "desc", spec.Order)

	for _, invalid := range []string{"", "dueDate", "up-dueDate", "asc-processVariable", "asc-; DROP"} {
		_, err := utils.ParseSortBy(invalid)
		assert.Equal(t, utils.ErrInvalidSort, err, invalid)
	}
}
