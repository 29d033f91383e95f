package appconf

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

// Config holds the HTTP-facing settings of the application.
type Config struct {
	Port                   int
	Env                    Environment
	ApiKeys                []string
	ExemptApiKeys          []string
	Verbose                bool
	RateLimit              int // Requests per second per API key
	OverlapThresholdMeters float64
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	CacheTTLSeconds        int
}

func EnvFlagToEnvironment(env string) Environment {
	switch env {
	case "development":
		return Development
	case "test":
		return Test
	case "production":
		return Production
	default:
		return Development
	}
}

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}
