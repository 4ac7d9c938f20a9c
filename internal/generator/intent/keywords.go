package intent

// Keyword tables for the heuristic fallback. The analyzer walks these in a
// fixed order so classification stays deterministic.

type domainEntry struct {
	domain string
	apis   []string
}

// domainTable maps a domain keyword to its primary external integrations.
// Order matters: the first matching entry wins the domain tag.
var domainTable = []domainEntry{
	{"weather", []string{"openweathermap"}},
	{"flight", []string{"skyscanner"}},
	{"hotel", []string{"booking"}},
	{"email", []string{"sendgrid"}},
	{"sms", []string{"twilio"}},
	{"payment", []string{"stripe"}},
	{"social", []string{"twitter"}},
	{"ai", []string{"openai"}},
	{"image", []string{"unsplash"}},
	{"news", []string{"newsapi"}},
	{"crypto", []string{"coingecko"}},
	{"stock", []string{"alpha-vantage"}},
	{"database", []string{"postgresql"}},
	{"file", []string{"aws-s3"}},
	{"calendar", []string{"google-calendar"}},
	{"maps", []string{"google-maps"}},
	{"translate", []string{"google-translate"}},
	{"qr", []string{"qrcode"}},
	{"url", []string{"bitly"}},
	{"pdf", []string{"pypdf"}},
	{"excel", []string{"openpyxl"}},
	{"webhook", []string{"webhooks"}},
	{"slack", []string{"slack-sdk"}},
	{"discord", []string{"discord"}},
	{"github", []string{"github"}},
	{"monitoring", []string{"uptime"}},
	{"scraping", []string{"beautifulsoup"}},
}

// functionalityTable maps a functionality type to its trigger keywords.
var functionalityTable = []struct {
	kind     string
	keywords []string
}{
	{"tracker", []string{"track", "monitor", "watch", "follow"}},
	{"generator", []string{"generate", "create", "make", "build"}},
	{"searcher", []string{"search", "find", "lookup", "query"}},
	{"notifier", []string{"alert", "notify", "send", "email", "sms"}},
	{"analyzer", []string{"analyze", "report", "summarize", "process"}},
	{"converter", []string{"convert", "transform", "export", "import"}},
	{"manager", []string{"manage", "organize", "store", "save"}},
	{"automation", []string{"automate", "schedule", "trigger", "workflow"}},
}

var databaseKeywords = []string{
	"store", "save", "database", "persist", "history", "log",
	"record", "track", "remember", "cache", "data", "manage",
	"task", "user", "profile", "list", "collection",
}

var userDataKeywords = []string{
	"task", "todo", "note", "reminder", "personal", "my", "user",
	"manage", "track", "list", "collection", "profile", "setting",
	"preference", "history", "favorite", "bookmark", "subscription",
}

var schedulingKeywords = []string{
	"schedule", "daily", "weekly", "monthly", "periodic", "regular",
	"cron", "timer", "interval", "recurring", "automatic",
}

var authKeywords = []string{
	"login", "auth", "user", "account", "secure", "private",
	"token", "key", "password", "credential",
}

var dataOperationTable = []struct {
	op       string
	keywords []string
}{
	{"read", []string{"get", "fetch", "read", "retrieve", "load"}},
	{"write", []string{"save", "store", "write", "create", "add"}},
	{"update", []string{"update", "modify", "change", "edit"}},
	{"delete", []string{"delete", "remove", "clear", "clean"}},
	{"search", []string{"search", "find", "query", "filter"}},
	{"export", []string{"export", "download", "backup", "extract"}},
	{"import", []string{"import", "upload", "load", "migrate"}},
}

// envVarTable maps an integration to the environment variables its client needs.
var envVarTable = map[string][]string{
	"openweathermap": {"OPENWEATHER_API_KEY"},
	"skyscanner":     {"SKYSCANNER_API_KEY"},
	"sendgrid":       {"SENDGRID_API_KEY"},
	"twilio":         {"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN"},
	"stripe":         {"STRIPE_API_KEY", "STRIPE_WEBHOOK_SECRET"},
	"openai":         {"OPENAI_API_KEY"},
	"slack-sdk":      {"SLACK_BOT_TOKEN"},
	"discord":        {"DISCORD_BOT_TOKEN"},
	"github":         {"GITHUB_TOKEN"},
}

// packageTable maps prompt keywords to extra Python packages for the manifest.
var packageTable = []struct {
	keywords []string
	packages []string
}{
	{[]string{"weather", "openweather"}, []string{"pyowm"}},
	{[]string{"email", "mail"}, []string{"sendgrid"}},
	{[]string{"sms", "text"}, []string{"twilio"}},
	{[]string{"pdf", "document"}, []string{"pypdf2", "reportlab"}},
	{[]string{"excel", "spreadsheet"}, []string{"openpyxl", "pandas"}},
	{[]string{"image", "photo"}, []string{"pillow"}},
	{[]string{"qr", "barcode"}, []string{"qrcode[pil]"}},
}

// basePackages are always present in a generated manifest.
var basePackages = []string{"fastmcp", "python-dotenv", "httpx", "pydantic"}
