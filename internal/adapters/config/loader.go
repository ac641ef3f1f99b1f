// Package config provides the configuration loader for zr.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"go.zr.dev/zr/internal/core/domain"
	"go.zr.dev/zr/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem

	// ActiveProfile, when set, names the profile whose overlay (spec.md
	// 4.D.1) is applied to every task during loading.
	ActiveProfile string
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{
		Logger: logger,
		FS:     NewOSFS(),
	}
}

// NewLoaderWithFS creates a new Loader with the given logger and filesystem.
func NewLoaderWithFS(logger ports.Logger, filesystem FileSystem) *Loader {
	return &Loader{
		Logger: logger,
		FS:     filesystem,
	}
}

// Mode represents the configuration mode of zr.
type Mode string

const (
	// ModeWorkspace indicates that zr has a workspaceFile.
	ModeWorkspace Mode = "workspace"
	// ModeStandalone indicates that zr has only one configFile.
	ModeStandalone Mode = "standalone"
)

var validProjectNameRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// Load reads a configuration file from the given path and returns a domain.Graph.
func (l *Loader) Load(cwd string) (*domain.Graph, error) {
	configPath, mode, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeStandalone:
		return l.loadConfigFile(configPath)
	case ModeWorkspace:
		return l.loadWorkspaceFile(configPath)
	default:
		return nil, zerr.With(domain.ErrConfigNotFound, "mode", mode)
	}
}

func (l *Loader) findConfiguration(cwd string) (string, Mode, error) {
	root, err := l.DiscoverRoot(cwd)
	if err != nil {
		return "", "", err
	}

	workspaceFilePath := filepath.Join(root, domain.WorkFileName)
	if _, err := l.FS.Stat(workspaceFilePath); err == nil {
		return workspaceFilePath, ModeWorkspace, nil
	}

	configFilePath := filepath.Join(root, domain.ZrFileName)
	if _, err := l.FS.Stat(configFilePath); err == nil {
		return configFilePath, ModeStandalone, nil
	}

	return "", "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

// DiscoverRoot walks up from cwd to find the workspace root.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	currentDir := cwd
	var standaloneCandidate string

	for {
		workspaceFilePath := filepath.Join(currentDir, domain.WorkFileName)
		if _, err := l.FS.Stat(workspaceFilePath); err == nil {
			return currentDir, nil
		}

		if standaloneCandidate == "" {
			configFilePath := filepath.Join(currentDir, domain.ZrFileName)
			if _, err := l.FS.Stat(configFilePath); err == nil {
				standaloneCandidate = currentDir
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	if standaloneCandidate != "" {
		return standaloneCandidate, nil
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) loadConfigFile(configPath string) (*domain.Graph, error) {
	var configFile ConfigFile
	if err := readAndUnmarshal(l, configPath, &configFile); err != nil {
		return nil, err
	}

	if configFile.Project != "" {
		l.Logger.Warn(fmt.Sprintf("'project' defined in %s has no effect in standalone mode", domain.ZrFileName))
	}

	g := domain.NewGraph()
	g.SetRoot(resolveRoot(configPath, configFile.Root))
	g.SetTagConcurrency(configFile.Resources.TagConcurrency)

	taskNames := collectTaskNames(configFile.Tasks)
	if err := l.addConfigFileTasks(g, configFile, taskNames); err != nil {
		return nil, err
	}

	g.SetWorkflows(convertWorkflows(configFile.Workflow))
	g.SetAliases(configFile.Alias)
	g.ApplySerialOrdering()

	return g, nil
}

// convertWorkflows lowers the YAML workflow DTOs into domain.Workflow values,
// applying the stage defaults (parallel defaults true, fail_fast defaults
// false) documented in the [workflow.<name>] schema.
func convertWorkflows(dtos map[string]WorkflowDTO) map[string]domain.Workflow {
	workflows := make(map[string]domain.Workflow, len(dtos))
	for name, dto := range dtos {
		stages := make([]domain.Stage, 0, len(dto.Stages))
		for _, s := range dto.Stages {
			parallel := true
			if s.Parallel != nil {
				parallel = *s.Parallel
			}
			failFast := false
			if s.FailFast != nil {
				failFast = *s.FailFast
			}
			stages = append(stages, domain.Stage{
				Name:      s.Name,
				Tasks:     s.Tasks,
				Parallel:  parallel,
				FailFast:  failFast,
				Condition: s.Condition,
				Approval:  s.Approval,
				OnFailure: s.OnFailure,
			})
		}
		workflows[name] = domain.Workflow{Name: name, Stages: stages}
	}
	return workflows
}

func collectTaskNames(tasks map[string]*TaskDTO) map[string]bool {
	taskNames := make(map[string]bool)
	for name := range tasks {
		taskNames[name] = true
	}
	return taskNames
}

func (l *Loader) addConfigFileTasks(g *domain.Graph, configFile ConfigFile, taskNames map[string]bool) error {
	for name := range configFile.Tasks {
		dto := configFile.Tasks[name]
		if err := validateTaskName(name); err != nil {
			return err
		}

		if dto.Template != "" {
			tmpl, ok := configFile.Template[dto.Template]
			if !ok {
				return zerr.With(domain.ErrMissingTemplate, "task", name, "template", dto.Template)
			}
			dto = inlineTemplate(dto, tmpl)
		}

		if l.ActiveProfile != "" {
			if profile, ok := configFile.Profile[l.ActiveProfile]; ok {
				dto = overlayProfile(dto, profile)
				if override, ok := profile.Task[name]; ok {
					dto = inlineTemplate(&override, dto)
				}
			}
		}

		if err := validateTaskDependencies(dto.DependsOn, taskNames); err != nil {
			return err
		}

		workingDir := resolveTaskWorkingDir(g.Root(), dto.WorkingDir)

		taskTools, err := resolveTaskTools(dto.Tools, configFile.Tools)
		if err != nil {
			return zerr.With(err, "task", name)
		}

		if err := l.addTaskOrMatrix(g, name, dto, workingDir, dto.DependsOn, dto.SerialDeps, taskTools); err != nil {
			return err
		}
	}
	return nil
}

func validateTaskDependencies(deps []string, taskNames map[string]bool) error {
	for _, dep := range deps {
		if !taskNames[dep] {
			return zerr.With(domain.ErrMissingDependency, "missing_dependency", dep)
		}
	}
	return nil
}

func (l *Loader) loadWorkspaceFile(configPath string) (*domain.Graph, error) {
	var workspaceFile WorkspaceFile
	if err := readAndUnmarshal(l, configPath, &workspaceFile); err != nil {
		return nil, err
	}

	g := domain.NewGraph()
	workspaceRoot := resolveRoot(configPath, workspaceFile.Root)
	g.SetRoot(workspaceRoot)
	g.SetTagConcurrency(workspaceFile.Resources.TagConcurrency)

	projectPaths, err := l.resolveProjectPaths(workspaceRoot, workspaceFile.Projects)
	if err != nil {
		return nil, err
	}

	// Track project names to ensure uniqueness
	projectNames := make(map[string]string)

	// Pass workspace-level tools to all projects
	if err := l.processProjects(g, workspaceRoot, projectPaths, projectNames, workspaceFile.Tools); err != nil {
		return nil, err
	}

	g.ApplySerialOrdering()

	return g, nil
}

func (l *Loader) resolveProjectPaths(workspaceRoot string, patterns []string) ([]string, error) {
	// 1. Resolve Glob Patterns
	// We use a map to deduplicate paths if multiple globs match the same directory
	projectPaths := make(map[string]struct{})

	for _, pattern := range patterns {
		// Join with workspaceRoot to match against absolute paths
		absPattern := filepath.Join(workspaceRoot, pattern)

		matches, err := l.FS.Glob(absPattern)
		if err != nil {
			return nil, zerr.Wrap(err, "glob pattern failed: "+pattern)
		}

		for _, match := range matches {
			projectPaths[match] = struct{}{}
		}
	}

	// 2. Sort Paths for Determinism
	// Maps iteration order is random, so we sort the keys to ensure tasks are processed consistently
	sortedPaths := make([]string, 0, len(projectPaths))
	for p := range projectPaths {
		sortedPaths = append(sortedPaths, p)
	}
	slices.Sort(sortedPaths)

	return sortedPaths, nil
}

func (l *Loader) processProjects(
	g *domain.Graph,
	workspaceRoot string,
	projectPaths []string,
	projectNames map[string]string,
	workspaceTools map[string]string,
) error {
	for _, projectPath := range projectPaths {
		if err := l.processProject(g, workspaceRoot, projectPath, projectNames, workspaceTools); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) processProject(
	g *domain.Graph,
	workspaceRoot, projectPath string,
	projectNames map[string]string,
	workspaceTools map[string]string,
) error {
	relPath, _ := filepath.Rel(workspaceRoot, projectPath)

	// Check if the match is actually a directory (Glob returns files too)
	isDir, pathErr := l.FS.IsDir(projectPath)
	if pathErr != nil {
		return pathErr
	}
	if !isDir {
		return nil
	}

	// Check for zr.yaml existence
	configFilePath := filepath.Join(projectPath, domain.ZrFileName)
	if _, fileErr := l.FS.Stat(configFilePath); errors.Is(fileErr, fs.ErrNotExist) {
		l.Logger.Warn(fmt.Sprintf("%s missing in project %s, skipping", domain.ZrFileName, relPath))
		return nil
	}

	configFile, err := l.loadConfigFileFromPath(configFilePath, relPath)
	if err != nil {
		return err
	}

	if err := l.validateConfigFile(configFile, relPath); err != nil {
		return err
	}

	// Check for duplicate project names
	if existingPath, exists := projectNames[configFile.Project]; exists {
		err := zerr.With(domain.ErrDuplicateProjectName, "project_name", configFile.Project)
		err = zerr.With(err, "first_occurrence", existingPath)
		err = zerr.With(err, "duplicate_at", relPath)
		return err
	}
	projectNames[configFile.Project] = relPath

	if configFile.Root != "" {
		l.Logger.Warn(fmt.Sprintf("'root' defined in %s is ignored in workspace mode", relPath))
	}

	// Merge tools: workspace tools as base, project tools override
	resolvedTools := mergeTools(workspaceTools, configFile.Tools)

	return l.addProjectTasks(g, configFile, projectPath, resolvedTools)
}

func (l *Loader) loadConfigFileFromPath(configFilePath, relPath string) (*ConfigFile, error) {
	// #nosec G304 -- configFilePath is constructed from validated projectPath
	projectConfigFile, pathErr := l.FS.ReadFile(configFilePath)
	if pathErr != nil {
		pathErr = zerr.Wrap(pathErr, domain.ErrConfigReadFailed.Error())
		pathErr = zerr.With(pathErr, "directory", relPath)
		return nil, pathErr
	}

	var configFile ConfigFile
	if err := yaml.Unmarshal(projectConfigFile, &configFile); err != nil {
		return nil, zerr.Wrap(err, "failed to parse project config: "+relPath)
	}

	return &configFile, nil
}

func (l *Loader) validateConfigFile(configFile *ConfigFile, relPath string) error {
	if configFile.Project == "" {
		return zerr.With(domain.ErrMissingProjectName, "directory", relPath)
	}

	if !validProjectNameRegex.MatchString(configFile.Project) {
		err := zerr.With(domain.ErrInvalidProjectName, "project_name", configFile.Project)
		return zerr.With(err, "directory", relPath)
	}

	return nil
}

func (l *Loader) addProjectTasks(
	g *domain.Graph,
	configFile *ConfigFile,
	projectPath string,
	resolvedTools map[string]string,
) error {
	for taskName := range configFile.Tasks {
		dto := configFile.Tasks[taskName]
		if dto == nil {
			err := zerr.With(domain.ErrInvalidTaskDefinition, "project", configFile.Project)
			err = zerr.With(err, "task", taskName)
			return err
		}
		if err := validateTaskName(taskName); err != nil {
			return err
		}

		if dto.Template != "" {
			tmpl, ok := configFile.Template[dto.Template]
			if !ok {
				return zerr.With(domain.ErrMissingTemplate, "task", taskName, "template", dto.Template)
			}
			dto = inlineTemplate(dto, tmpl)
		}

		if l.ActiveProfile != "" {
			if profile, ok := configFile.Profile[l.ActiveProfile]; ok {
				dto = overlayProfile(dto, profile)
				if override, ok := profile.Task[taskName]; ok {
					dto = inlineTemplate(&override, dto)
				}
			}
		}

		// Rebase inputs and targets to be relative to the workspace root
		var err error
		dto.Input, err = l.rebasePaths(dto.Input, projectPath, g.Root())
		if err != nil {
			return zerr.Wrap(err, "failed to rebase inputs for project "+configFile.Project)
		}

		dto.Target, err = l.rebasePaths(dto.Target, projectPath, g.Root())
		if err != nil {
			return zerr.Wrap(err, "failed to rebase targets for project "+configFile.Project)
		}

		namespacedTaskName := fmt.Sprintf("%s:%s", configFile.Project, taskName)
		namespacedDeps := l.namespaceDependencies(configFile.Project, dto.DependsOn)
		namespacedSerialDeps := l.namespaceDependencies(configFile.Project, dto.SerialDeps)
		workingDir := resolveTaskWorkingDir(projectPath, dto.WorkingDir)

		// Resolve tool aliases to flake references
		taskTools, err := resolveTaskTools(dto.Tools, resolvedTools)
		if err != nil {
			return zerr.With(err, "task", namespacedTaskName)
		}

		if err := l.addTaskOrMatrix(
			g, namespacedTaskName, dto, workingDir, namespacedDeps, namespacedSerialDeps, taskTools,
		); err != nil {
			return err
		}
	}
	return nil
}

// addTaskOrMatrix builds a single task, or — when the DTO declares a matrix —
// expands it into one task per Cartesian-product variant plus a base
// aggregate task depending on every variant (spec.md 4.D.3).
func (l *Loader) addTaskOrMatrix(
	g *domain.Graph,
	name string,
	dto *TaskDTO,
	workingDir domain.InternedString,
	deps, serialDeps []string,
	tools map[string]string,
) error {
	if len(dto.Matrix) == 0 {
		task, err := buildTask(name, dto, workingDir, deps, serialDeps, tools)
		if err != nil {
			return err
		}
		return g.AddTask(task)
	}

	variants := expandMatrix(dto.Matrix)
	variantNames := make([]string, 0, len(variants))

	for _, binding := range variants {
		variantName := matrixVariantName(name, dto.Matrix, binding)
		variantDTO := bindMatrixDTO(dto, binding)

		task, err := buildTask(variantName, variantDTO, workingDir, deps, serialDeps, tools)
		if err != nil {
			return err
		}
		if err := g.AddTask(task); err != nil {
			return err
		}
		variantNames = append(variantNames, variantName)
	}

	// The base name is reserved as a meta aggregate depending on all variants.
	aggregate := &domain.Task{
		Name:         domain.NewInternedString(name),
		Dependencies: domain.NewInternedStrings(variantNames),
		ParallelDeps: domain.NewInternedStrings(variantNames),
	}
	return g.AddTask(aggregate)
}

// bindMatrixDTO returns a copy of dto with ${matrix.<key>} substituted in
// Cmd, Environment, and WorkingDir for the given variant binding.
func bindMatrixDTO(dto *TaskDTO, binding map[string]string) *TaskDTO {
	variant := *dto
	variant.Matrix = nil

	variant.Cmd = bindMatrixValues(dto.Cmd, binding)

	if len(dto.Environment) > 0 {
		env := make(map[string]string, len(dto.Environment))
		for k, v := range dto.Environment {
			env[k] = bindMatrixValues(v, binding)
		}
		variant.Environment = env
	}

	variant.WorkingDir = bindMatrixValues(dto.WorkingDir, binding)
	return &variant
}

func (l *Loader) rebasePaths(paths []string, base, root string) ([]string, error) {
	rebased := make([]string, len(paths))
	for i, p := range paths {
		// Join with base (project path) to get the full path
		abs := filepath.Join(base, p)
		// Make it relative to the workspace root
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return nil, err
		}
		rebased[i] = rel
	}
	return rebased, nil
}

func (l *Loader) namespaceDependencies(projectName string, deps []string) []string {
	namespacedDeps := make([]string, 0, len(deps))
	for _, dep := range deps {
		if strings.Contains(dep, ":") {
			namespacedDeps = append(namespacedDeps, dep)
		} else {
			namespacedDeps = append(namespacedDeps, fmt.Sprintf("%s:%s", projectName, dep))
		}
	}
	return namespacedDeps
}

func canonicalizeStrings(strs []string) []domain.InternedString {
	if len(strs) == 0 {
		return nil
	}

	// Sort strings
	sorted := make([]string, len(strs))
	copy(sorted, strs)
	slices.Sort(sorted)

	// Deduplicate and intern
	unique := slices.Compact(sorted)
	return domain.NewInternedStrings(unique)
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
// This is the internal method that accepts any type.
func (l *Loader) readAndUnmarshalYAML(configPath string, target any) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := l.FS.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}

// readAndUnmarshal is a type-safe wrapper around readAndUnmarshalYAML.
// It ensures at compile time that target is a pointer.
func readAndUnmarshal[T any](l *Loader, configPath string, target *T) error {
	return l.readAndUnmarshalYAML(configPath, target)
}

// validateTaskName checks if the task name is reserved or contains invalid characters.
func validateTaskName(name string) error {
	if name == "all" {
		return zerr.With(domain.ErrReservedTaskName, "task_name", name)
	}
	if strings.Contains(name, ":") {
		err := zerr.With(domain.ErrInvalidTaskName, "invalid_character", ":")
		return zerr.With(err, "task_name", name)
	}
	return nil
}

// mergeTools creates a new map with workspaceTools as base, project tools overriding.
func mergeTools(workspaceTools, projectTools map[string]string) map[string]string {
	result := make(map[string]string, len(workspaceTools)+len(projectTools))
	for k, v := range workspaceTools {
		result[k] = v
	}
	for k, v := range projectTools {
		result[k] = v
	}
	return result
}

// resolveTaskTools maps tool aliases to their full flake references.
// Returns ErrMissingTool if any alias is not found in resolvedTools.
func resolveTaskTools(aliases []string, resolvedTools map[string]string) (map[string]string, error) {
	if len(aliases) == 0 {
		return nil, nil
	}

	result := make(map[string]string, len(aliases))
	for _, alias := range aliases {
		ref, ok := resolvedTools[alias]
		if !ok {
			return nil, zerr.With(domain.ErrMissingTool, "tool_alias", alias)
		}
		result[alias] = ref
	}
	return result, nil
}

// buildTask creates a domain.Task from a TaskDTO with the given parameters.
func buildTask(
	name string,
	dto *TaskDTO,
	workingDir domain.InternedString,
	deps, serialDeps []string,
	tools map[string]string,
) (*domain.Task, error) {
	rebuildStrategy, err := validateRebuildStrategy(dto.Rebuild)
	if err != nil {
		return nil, zerr.With(err, "task", name)
	}

	allDeps := deps
	if len(serialDeps) > 0 {
		allDeps = append(append([]string{}, deps...), serialDeps...)
	}

	cacheEnabled := dto.Cmd != ""
	if dto.CacheEnabled != nil {
		cacheEnabled = *dto.CacheEnabled && dto.Cmd != ""
	}

	requiredTools := make([]domain.RequiredTool, 0, len(dto.Tools))
	for _, toolAlias := range dto.Tools {
		requiredTools = append(requiredTools, domain.RequiredTool{Kind: toolAlias, Version: tools[toolAlias]})
	}

	return &domain.Task{
		Name:            domain.NewInternedString(name),
		Command:         dto.Cmd,
		Inputs:          canonicalizeStrings(dto.Input),
		Outputs:         canonicalizeStrings(dto.Target),
		Dependencies:    domain.NewInternedStrings(allDeps),
		ParallelDeps:    domain.NewInternedStrings(deps),
		SerialDeps:      domain.NewInternedStrings(serialDeps),
		Environment:     dto.Environment,
		WorkingDir:      workingDir,
		Tools:           tools,
		RebuildStrategy: rebuildStrategy,
		Timeout:         time.Duration(dto.TimeoutMS) * time.Millisecond,
		Retry: domain.Retry{
			Max:         dto.Retry.Max,
			DelayMS:     dto.Retry.DelayMS,
			Exponential: dto.Retry.Exponential,
		},
		AllowFailure:   dto.AllowFailure,
		Condition:      dto.Condition,
		CacheEnabled:   cacheEnabled,
		MaxConcurrent:  dto.MaxConcurrent,
		MaxCPUCores:    dto.MaxCPUCores,
		MaxMemoryBytes: dto.MaxMemoryMB * 1024 * 1024,
		RequiredTools:  requiredTools,
		Tags:           dto.Tags,
	}, nil
}

// resolveTaskWorkingDir resolves the working directory for a task.
// If configuredWorkingDir is empty, uses baseDir.
// If configuredWorkingDir is absolute, uses it directly.
// Otherwise, joins it with baseDir.
func resolveTaskWorkingDir(baseDir, configuredWorkingDir string) domain.InternedString {
	if configuredWorkingDir == "" {
		return domain.NewInternedString(baseDir)
	}

	if filepath.IsAbs(configuredWorkingDir) {
		return domain.NewInternedString(filepath.Clean(configuredWorkingDir))
	}

	return domain.NewInternedString(filepath.Clean(filepath.Join(baseDir, configuredWorkingDir)))
}

// validateRebuildStrategy validates and converts a rebuild strategy string to domain.RebuildStrategy.
// Empty string defaults to RebuildOnChange for backward compatibility.
func validateRebuildStrategy(value string) (domain.RebuildStrategy, error) {
	switch value {
	case "":
		return domain.RebuildOnChange, nil
	case "on-change":
		return domain.RebuildOnChange, nil
	case "always":
		return domain.RebuildAlways, nil
	default:
		return "", domain.ErrInvalidRebuildStrategy
	}
}

// DiscoverConfigPaths finds zr.yaml and zr.work.yaml paths from cwd.
// Returns paths and their mtimes for cache validation.
// It walks up the directory tree and finds all config files that would be loaded
// for a workspace (including workspace file and all project files).
func (l *Loader) DiscoverConfigPaths(cwd string) (map[string]int64, error) {
	paths := make(map[string]int64)

	// First, find the workspace or standalone config
	currentDir := cwd
	var standaloneCandidate string

	for {
		workspaceFilePath := filepath.Join(currentDir, domain.WorkFileName)
		if info, err := l.FS.Stat(workspaceFilePath); err == nil {
			// Found workspace file, add it
			paths[workspaceFilePath] = info.ModTime().UnixNano()

			// For workspace mode, also find all project zr.yaml files
			if err := l.discoverWorkspaceProjectPaths(currentDir, paths); err != nil {
				return nil, zerr.Wrap(err, "failed to discover project paths")
			}

			return paths, nil
		}

		if standaloneCandidate == "" {
			configFilePath := filepath.Join(currentDir, domain.ZrFileName)
			if info, err := l.FS.Stat(configFilePath); err == nil {
				standaloneCandidate = configFilePath
				paths[configFilePath] = info.ModTime().UnixNano()
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	if standaloneCandidate != "" {
		// Standalone mode, only one config file
		return paths, nil
	}

	return nil, zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

// discoverWorkspaceProjectPaths finds all zr.yaml files in workspace projects.
func (l *Loader) discoverWorkspaceProjectPaths(workspaceRoot string, paths map[string]int64) error {
	workspaceFilePath := filepath.Join(workspaceRoot, domain.WorkFileName)
	//nolint:gosec // G304: Path is constructed from validated workspace root, safe for use
	workspaceFileData, readErr := l.FS.ReadFile(workspaceFilePath)
	if readErr != nil {
		return zerr.Wrap(readErr, "failed to read workspaceFile")
	}

	var workspaceFile WorkspaceFile
	if unmarshalErr := yaml.Unmarshal(workspaceFileData, &workspaceFile); unmarshalErr != nil {
		return zerr.Wrap(unmarshalErr, "failed to parse workspaceFile")
	}

	projectPaths, resolveErr := l.resolveProjectPaths(workspaceRoot, workspaceFile.Projects)
	if resolveErr != nil {
		return resolveErr
	}

	for _, projectPath := range projectPaths {
		configFilePath := filepath.Join(projectPath, domain.ZrFileName)
		if info, statErr := l.FS.Stat(configFilePath); statErr == nil {
			paths[configFilePath] = info.ModTime().UnixNano()
		}
	}

	return nil
}
