package resources

// Data types for the .tmpl assets. Each struct mirrors the variables one
// template consumes; the project and vscode creators fill them in.

// ComposeData parameterizes docker/docker-compose.yaml.tmpl. The same
// template backs both the robot service ("appcont") and the development
// container service ("devcont").
type ComposeData struct {
	Service          string
	ImageID          string
	WorkspaceDir     string // host side of the workspace mount
	ImgWorkspaceDir  string
	ImgDatasetsDir   string
	ImgSSHDir        string
	UseGit           bool
	GitconfigFile    string // host gitconfig, only read when UseGit
	ImgGitconfigFile string
	ExtUID           string
	ExtGID           string
}

// BuildImgData parameterizes docker/build_img.sh.tmpl.
type BuildImgData struct {
	ProjectID    string
	BaseImg      string
	ImageID      string
	Platform     string
	PlatformList string // comma-separated ids for the help text
	ImgUser      string
	RosDistro    string
	RosVersion   int
}

// InstallROSData parameterizes ros/install_ros.sh.tmpl.
type InstallROSData struct {
	RosVersion int
}

// EnvironmentData parameterizes ros/environment_ros{1,2}.sh.tmpl.
type EnvironmentData struct {
	RosDistro string
}

// CMakeData parameterizes the package CMakeLists templates.
type CMakeData struct {
	CVersion   string // e.g. "99"
	CppVersion string // e.g. "17"
}

// WorkspaceData parameterizes vscode/ws.code-workspace.tmpl.
type WorkspaceData struct {
	RosDistro string
}

// CppPropertiesData parameterizes vscode/c_cpp_properties.json.tmpl.
type CppPropertiesData struct {
	CStandard   string // e.g. "c99"
	CppStandard string // e.g. "c++17"
	RosDistro   string
}

// TasksData parameterizes vscode/tasks.json.tmpl.
type TasksData struct {
	BuildReleaseCmd        string
	BuildDebugCmd          string
	BuildRelWithDebInfoCmd string
	CleanCmd               string
}

// DevcontainerData parameterizes vscode/devcontainer.json.tmpl.
type DevcontainerData struct {
	Service         string
	ImgUser         string
	ImgWorkspaceDir string
}
