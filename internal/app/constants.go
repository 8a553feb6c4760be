package app

const (
	Name                   = "shelfhost"
	ConfigFilename         = "config.json"
	ServerSettingsFilename = "server.json"
	UserDBFilename         = "users.db"
	LogFilename            = "app.log"
	ErrorLogFilename       = "server-error.log"
	AccessLogFilename      = "server-access.log"
	LibraryDirName         = "library"
	TestServerHost         = "127.0.0.1"
)
