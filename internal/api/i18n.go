package api

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// DefaultLanguage 默认语言
const DefaultLanguage = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

// I18nManager 国际化管理器
type I18nManager struct {
	mu       sync.RWMutex
	messages map[string]map[string]string // lang -> key -> message
}

var defaultI18nManager = mustLoadEmbeddedLocales()

// mustLoadEmbeddedLocales 加载内置语言资源
func mustLoadEmbeddedLocales() *I18nManager {
	m := NewI18nManager()
	if err := m.LoadFS(localeFS, "locales"); err != nil {
		panic(err)
	}
	return m
}

// NewI18nManager 创建国际化管理器
func NewI18nManager() *I18nManager {
	return &I18nManager{
		messages: make(map[string]map[string]string),
	}
}

// DefaultI18nManager 返回内置资源的管理器
func DefaultI18nManager() *I18nManager {
	return defaultI18nManager
}

// LoadFS 从目录加载 <lang>.yaml 资源文件
func (m *I18nManager) LoadFS(fsys embed.FS, dir string) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read locale directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yaml" {
			continue
		}

		data, err := fsys.ReadFile(path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read locale %s: %w", name, err)
		}
		if err := m.LoadYAML(strings.TrimSuffix(name, ".yaml"), data); err != nil {
			return err
		}
	}
	return nil
}

// LoadYAML 加载嵌套 YAML 资源,键按点号展开
func (m *I18nManager) LoadYAML(lang string, data []byte) error {
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("failed to parse locale %s: %w", lang, err)
	}

	messages := make(map[string]string)
	flatten("", tree, messages)
	m.LoadMessages(lang, messages)
	return nil
}

// flatten 将嵌套映射展开为点号分隔的键
func flatten(prefix string, node map[string]interface{}, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch value := v.(type) {
		case map[string]interface{}:
			flatten(key, value, out)
		case nil:
			continue
		default:
			out[key] = fmt.Sprint(value)
		}
	}
}

// LoadMessages 加载语言消息,与已有消息合并
func (m *I18nManager) LoadMessages(lang string, messages map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.messages[lang]
	if !ok {
		existing = make(map[string]string, len(messages))
		m.messages[lang] = existing
	}
	for k, v := range messages {
		existing[k] = v
	}
}

// Languages 返回已加载的语言
func (m *I18nManager) Languages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	langs := make([]string, 0, len(m.messages))
	for lang := range m.messages {
		langs = append(langs, lang)
	}
	return langs
}

// Translate 翻译消息,找不到时回退到英文,仍找不到返回 key
func (m *I18nManager) Translate(lang, key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if message, ok := m.messages[lang][key]; ok {
		return message
	}
	if lang != DefaultLanguage {
		if message, ok := m.messages[DefaultLanguage][key]; ok {
			return message
		}
	}
	return key
}

// I18nMiddleware 国际化中间件
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := DefaultLanguage

		// 查询参数优先于 Accept-Language 头
		if queryLang := c.Query("lang"); queryLang != "" {
			lang = normalizeLanguage(queryLang)
		} else if headerLang := c.GetHeader("Accept-Language"); headerLang != "" {
			lang = parseAcceptLanguage(headerLang)
		}

		c.Set("language", lang)
		c.Next()
	}
}

// GetLanguage 从上下文获取语言
func GetLanguage(c *gin.Context) string {
	if lang := c.GetString("language"); lang != "" {
		return lang
	}
	return DefaultLanguage
}

// T 翻译消息(使用默认管理器)
func T(c *gin.Context, key string) string {
	return defaultI18nManager.Translate(GetLanguage(c), key)
}

// normalizeLanguage 规范化语言代码
func normalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if strings.HasPrefix(lang, "zh") {
		return "zh"
	}
	if strings.HasPrefix(lang, "en") {
		return "en"
	}
	if base, _, ok := strings.Cut(lang, "-"); ok {
		return base
	}
	return lang
}

// parseAcceptLanguage 解析 Accept-Language 头,取第一个语言
// 例如 zh-CN,zh;q=0.9,en;q=0.8
func parseAcceptLanguage(header string) string {
	first, _, _ := strings.Cut(header, ",")
	lang, _, _ := strings.Cut(first, ";")
	if strings.TrimSpace(lang) == "" || lang == "*" {
		return DefaultLanguage
	}
	return normalizeLanguage(lang)
}
