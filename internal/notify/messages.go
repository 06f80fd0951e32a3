package notify

import "strings"

// Messages holds the user-facing texts for one locale.
type Messages struct {
	Connecting        string
	ConnectionLost    string
	ConnectionFailed  string
	NoSuchDevice      string
	IncorrectPassword string
	PointerLockLost   string
	PointerLockFailed string
}

var catalog = map[string]Messages{
	"en": {
		Connecting:        "Connecting...",
		ConnectionLost:    "Connection lost...",
		ConnectionFailed:  "Connection failed...",
		NoSuchDevice:      "No such device",
		IncorrectPassword: "Incorrect password",
		PointerLockLost:   "Mouse lock released. Press Esc or click the video to lock again (Ctrl+Esc releases)",
		PointerLockFailed: "Mouse lock failed",
	},
	"zh": {
		Connecting:        "连接中...",
		ConnectionLost:    "连接已断开...",
		ConnectionFailed:  "连接失败...",
		NoSuchDevice:      "没有该设备",
		IncorrectPassword: "密码错误",
		PointerLockLost:   "已退出鼠标锁定，按 Esc 或点击视频重新锁定（释放可按 Ctrl+Esc）",
		PointerLockFailed: "鼠标锁定失败",
	},
}

// HasLocale reports whether texts exist for locale.
func HasLocale(locale string) bool {
	_, ok := catalog[strings.ToLower(locale)]
	return ok
}

// MessagesFor returns the texts for locale, falling back to English.
func MessagesFor(locale string) Messages {
	if m, ok := catalog[strings.ToLower(locale)]; ok {
		return m
	}
	return catalog["en"]
}
