// Package scripts embeds the versioned SQL scripts run against the database.
//
// File names follow the golang-migrate convention ({version}_{title}.up.sql and
// {version}_{title}.down.sql) so the same set can be applied by the migration tool.
package scripts

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var files embed.FS

const upSuffix = ".up.sql"

// Script is a versioned SQL script
type Script struct {
	Name    string
	Version uint
	SQL     string
}

// FS returns the script set rooted at the directory holding the .sql files
func FS() fs.FS {
	sub, err := fs.Sub(files, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// Load reads the up script with the given name, for example "000001_create_db_user"
func Load(name string) (*Script, error) {
	return LoadFrom(FS(), name)
}

// LoadFrom reads the up script with the given name from fsys
func LoadFrom(fsys fs.FS, name string) (*Script, error) {
	version, err := parseVersion(name)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(fsys, name+upSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", name, err)
	}

	sql := strings.TrimSpace(string(data))
	if sql == "" {
		return nil, fmt.Errorf("script %s is empty", name)
	}

	return &Script{
		Name:    name,
		Version: version,
		SQL:     sql,
	}, nil
}

// List returns the names of all up scripts ordered by version
func List() ([]string, error) {
	entries, err := fs.ReadDir(FS(), ".")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), upSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), upSuffix))
	}

	sort.Strings(names)
	return names, nil
}

func parseVersion(name string) (uint, error) {
	prefix, _, found := strings.Cut(name, "_")
	if !found || prefix == "" {
		return 0, fmt.Errorf("script name %q has no version prefix", name)
	}

	version, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("script name %q has an invalid version prefix: %w", name, err)
	}

	return uint(version), nil
}
