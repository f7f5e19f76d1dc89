package roadmap

import "strings"

// Messages is the user-facing text for one display language.
type Messages struct {
	Locale              string
	PageTitle           string
	Description         string
	DescriptionNoIframe string
	RoadmapIDLabel      string
	RoadmapIDHelp       string
	IframeURLLabel      string
	IframeURLHelp       string
	Save                string
	Validating          string
	Dismiss             string

	SaveSuccess      string
	SaveErrorPrefix  string
	EnterRoadmapID   string
	ValidationFailed string
	InvalidRoadmapID string
	ValidationError  string
	NetworkError     string
	Reconnecting     string
}

var catalogs = map[string]Messages{
	"en": {
		Locale:              "en",
		PageTitle:           "Roadmap Settings",
		Description:         "Enter your Roadmap Space ID and iframe URL. These will be saved to your store's metafield for use in your theme.",
		DescriptionNoIframe: "Enter your Roadmap Space ID. It will be saved to your store's metafield for use in your theme.",
		RoadmapIDLabel:      "Roadmap ID",
		RoadmapIDHelp:       "You can find this ID after creating a public roadmap in Roadmap Space",
		IframeURLLabel:      "Iframe URL",
		IframeURLHelp:       "URL for loading the Roadmap widget",
		Save:                "Save",
		Validating:          "Validating...",
		Dismiss:             "Dismiss",
		SaveSuccess:         "Settings have been saved successfully",
		SaveErrorPrefix:     "Error saving settings: ",
		EnterRoadmapID:      "Please enter a Roadmap ID",
		ValidationFailed:    "Validation failed: ",
		InvalidRoadmapID:    "Invalid Roadmap ID",
		ValidationError:     "Error validating Roadmap ID: ",
		NetworkError:        "Network error",
		Reconnecting:        "Refreshing your session...",
	},
	"zh": {
		Locale:              "zh",
		PageTitle:           "Roadmap 设置",
		Description:         "请输入您的 Roadmap Space ID 和 iframe URL。它们将保存到店铺的元字段中，供主题使用。",
		DescriptionNoIframe: "请输入您的 Roadmap Space ID。它将保存到店铺的元字段中，供主题使用。",
		RoadmapIDLabel:      "Roadmap ID",
		RoadmapIDHelp:       "在 Roadmap Space 中创建公开路线图后即可找到此 ID",
		IframeURLLabel:      "Iframe URL",
		IframeURLHelp:       "用于加载 Roadmap 小部件的 URL",
		Save:                "保存",
		Validating:          "正在验证...",
		Dismiss:             "关闭",
		SaveSuccess:         "设置已成功保存",
		SaveErrorPrefix:     "保存设置时出错：",
		EnterRoadmapID:      "请输入 Roadmap ID",
		ValidationFailed:    "验证失败：",
		InvalidRoadmapID:    "无效的 Roadmap ID",
		ValidationError:     "验证 Roadmap ID 时出错：",
		NetworkError:        "网络错误",
		Reconnecting:        "正在刷新会话...",
	},
}

// Catalog returns the messages for locale, accepting tags such as "zh-CN" or "en-US".
// Unknown locales fall back to English.
func Catalog(locale string) Messages {
	tag := strings.ToLower(strings.TrimSpace(locale))
	if idx := strings.IndexAny(tag, "-_"); idx >= 0 {
		tag = tag[:idx]
	}
	if m, ok := catalogs[tag]; ok {
		return m
	}
	return catalogs["en"]
}

// CheckFailure renders a roadmap check failure for display.
func (m Messages) CheckFailure(err error) string {
	checkErr, ok := AsCheckError(err)
	if !ok {
		return m.ValidationError + err.Error()
	}
	switch checkErr.Reason {
	case ReasonEmpty:
		return m.EnterRoadmapID
	case ReasonRejected:
		detail := checkErr.Detail
		if detail == "" {
			detail = m.InvalidRoadmapID
		}
		return m.ValidationFailed + detail
	default:
		detail := checkErr.Detail
		if detail == "" {
			detail = m.NetworkError
		}
		return m.ValidationError + detail
	}
}
