package cfg

type Cfg struct {
	// Storage configuration
	DBPath      string
	DownloadDir string

	// Application configuration
	Port               string
	WorkerCount        int
	RefreshInterval    int
	SubscriptionsFile  string
	DownloadOnlyLatest bool
	APIAccessKey       string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
