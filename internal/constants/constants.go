// Package constants holds names and defaults shared across packages.
package constants

const (
	// SkillsDirName is the reserved directory of a multi-skill repository.
	SkillsDirName = "skills"

	// SkillFileName is the optional metadata file inside a skill directory.
	SkillFileName = "SKILL.md"

	// DefaultRef is used when a locator has no /tree/<ref> segment.
	DefaultRef = "main"

	// LibraryDirName is the library root relative to the home directory.
	LibraryDirName = "Documents/AgentSkills"

	// ConfigDirName holds config.json relative to the home directory.
	ConfigDirName = ".skill-linker"

	// EnvPrefix is the viper environment prefix.
	EnvPrefix = "SKILL_LINKER"
)
