package app

// Key binding constants used in handleKey.
const (
	KeyQuit      = "q"
	KeyQuitUpper = "Q"
	KeyCtrlC     = "ctrl+c"
	KeyEsc       = "esc"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyJ         = "j"
	KeyK         = "k"
	KeyEnter     = "enter"
	KeyHome      = "g"
	KeyEnd       = "G"
	KeyPgUp      = "pgup"
	KeyPgDown    = "pgdown"

	// Job list
	KeyTimeline    = "t"
	KeyRefresh     = "r"
	KeyAutoRefresh = "a"
	KeyRetry       = "R"
	KeyDelete      = "d"
	KeyClearErrors = "X"
	KeyConfirm     = "y"
	KeyDeny        = "n"

	// Log tail
	KeyFontUp     = "+"
	KeyFontUpAlt  = "="
	KeyFontDown   = "-"
	KeyAutoScroll = "s"
	KeySelect     = "v"
	KeyCopy       = "c"
)
