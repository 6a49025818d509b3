package logging

const (
	// KeyAppName is the key for the application name.
	KeyAppName = "app"

	// KeyError is the key for an error.
	KeyError = "err"

	// KeyGuild is the key for a guild ID.
	KeyGuild = "guild"

	// KeyUser is the key for a user ID.
	KeyUser = "user"

	// KeyThread is the key for a thread ID.
	KeyThread = "thread"

	// KeyLang is the key for a panel language.
	KeyLang = "lang"

	// KeyComponent is the key for the component that emitted the line.
	KeyComponent = "component"
)
