package errors

type ExitCode int

const (
	GenericFailureExitCode ExitCode = 1

	ConfigFailureExitCode ExitCode = 70

	// Scheduler lifecycle
	InitFailureExitCode    ExitCode = 80
	CleanupFailureExitCode ExitCode = 81
	DeployFailureExitCode  ExitCode = 82
	StepFailureExitCode    ExitCode = 83

	AdminServerFailureExitCode ExitCode = 90
)
