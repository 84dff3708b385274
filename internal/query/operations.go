package query

// ErrorMessage is the message reported when a response carries no better
// explanation.
const ErrorMessage = "[migas-go] An error occurred."

// Process status values accepted by the status parameter.
const (
	StatusRunning   = "R"
	StatusCompleted = "C"
	StatusFailed    = "F"
	StatusSuspended = "S"
)

// Container values accepted by the container parameter.
const (
	ContainerUnknown   = "unknown"
	ContainerDocker    = "docker"
	ContainerApptainer = "apptainer"
)

// User type values accepted by the user_type parameter.
const (
	UserGeneral = "general"
	UserBot     = "bot"
)

// AddBreadcrumb records one usage event.
var AddBreadcrumb = Operation{
	Type: TypeMutation,
	Name: "add_breadcrumb",
	Schema: Schema{
		Leaf("project", FreeText),
		Leaf("project_version", FreeText),
		Leaf("language", FreeText),
		Leaf("language_version", FreeText),
		Group("ctx",
			Leaf("session_id", FreeText),
			Leaf("user_id", FreeText),
			Leaf("user_type", Literal),
			Leaf("platform", FreeText),
			Leaf("container", Literal),
			Leaf("is_ci", Literal),
		),
		Group("proc",
			Leaf("status", Literal),
			Leaf("status_desc", FreeText),
			Leaf("error_type", FreeText),
			Leaf("error_desc", FreeText),
		),
	},
	Selections:  []string{"success"},
	Fingerprint: true,
}

// AddProject is the legacy combined usage-and-version call. Deprecated:
// use AddBreadcrumb and CheckProject.
var AddProject = Operation{
	Type: TypeMutation,
	Name: "add_project",
	Schema: Schema{
		Group("p",
			Leaf("project", FreeText),
			Leaf("project_version", FreeText),
			Leaf("language", FreeText),
			Leaf("language_version", FreeText),
			Leaf("is_ci", Literal),
			Leaf("status", Literal),
			Leaf("status_desc", FreeText),
			Leaf("error_type", FreeText),
			Leaf("error_desc", FreeText),
			Leaf("user_id", FreeText),
			Leaf("session_id", FreeText),
			Leaf("container", Literal),
			Leaf("user_type", Literal),
			Leaf("platform", FreeText),
			Leaf("arguments", FreeText),
		),
	},
	Fingerprint: true,
	Fallback: map[string]any{
		"success":        false,
		"latest_version": nil,
		"message":        ErrorMessage,
	},
}

// CheckProject compares a project version with the latest release.
var CheckProject = Operation{
	Type: TypeQuery,
	Name: "check_project",
	Schema: Schema{
		Leaf("project", FreeText),
		Leaf("project_version", FreeText),
		Leaf("language", FreeText),
		Leaf("language_version", FreeText),
		Leaf("is_ci", Literal),
		Leaf("status", Literal),
		Leaf("status_desc", FreeText),
		Leaf("error_type", FreeText),
		Leaf("error_desc", FreeText),
		Leaf("user_id", FreeText),
		Leaf("session_id", FreeText),
		Leaf("container", Literal),
		Leaf("platform", FreeText),
		Leaf("arguments", FreeText),
	},
	Selections: []string{"success", "flagged", "latest", "message"},
}

// GetUsage counts breadcrumbs for a project over a time range.
var GetUsage = Operation{
	Type: TypeQuery,
	Name: "get_usage",
	Schema: Schema{
		Leaf("project", FreeText),
		Leaf("start", FreeText),
		Leaf("end", FreeText),
		Leaf("unique", Literal),
	},
}

// Operations lists the built-in operations by name.
var Operations = map[string]Operation{
	AddBreadcrumb.Name: AddBreadcrumb,
	AddProject.Name:    AddProject,
	CheckProject.Name:  CheckProject,
	GetUsage.Name:      GetUsage,
}

// Lookup returns the built-in operation called name.
func Lookup(name string) (Operation, bool) {
	op, ok := Operations[name]
	return op, ok
}
