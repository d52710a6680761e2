package internal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/mod/semver"
)

// DefaultMaxProbes bounds forward patch probing for a runtime build.
const DefaultMaxProbes = 1000

type RuntimeBuild struct {
	Version     string
	Path        string
	PixiVersion string
}

// Registry maps exact major.minor.patch versions to runtime builds.
type Registry map[string]RuntimeBuild

// ParseRegistry reads the webplayer table out of the editor index.
func ParseRegistry(data []byte) (Registry, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("runtime index is not valid json")
	}
	table := gjson.GetBytes(data, "editor_table.webplayers")
	if !table.IsObject() {
		return nil, fmt.Errorf("runtime index has no editor_table.webplayers")
	}
	reg := Registry{}
	table.ForEach(func(key, value gjson.Result) bool {
		pixi := value.Get("pixi").String()
		if pixi == "" {
			pixi = value.Get("pixiVersion").String()
		}
		reg[key.String()] = RuntimeBuild{
			Version:     key.String(),
			Path:        value.Get("path").String(),
			PixiVersion: pixi,
		}
		return true
	})
	return reg, nil
}

// Versions returns the registry's versions in semver order, oldest first.
func (r Registry) Versions() []string {
	versions := maps.Keys(r)
	slices.SortFunc(versions, func(a, b string) int {
		if c := semver.Compare("v"+a, "v"+b); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return versions
}

// ResolveRuntime finds the build for version, or the closest newer patch
// release. It returns the build and the number of patch increments needed.
func ResolveRuntime(version string, reg Registry, maxProbes int) (RuntimeBuild, int, error) {
	major, minor, patch, err := splitVersion(version)
	if err != nil {
		return RuntimeBuild{}, 0, err
	}
	for probes := 0; probes <= maxProbes; probes++ {
		candidate := fmt.Sprintf("%d.%d.%d", major, minor, patch+probes)
		if build, ok := reg[candidate]; ok {
			return build, probes, nil
		}
	}
	return RuntimeBuild{}, maxProbes, fmt.Errorf("%w: %s after %d probes", ErrRuntimeNotFound, version, maxProbes)
}

func splitVersion(version string) (int, int, int, error) {
	parts := strings.Split(version, ".")
	if len(parts) != 3 || !semver.IsValid("v"+version) || semver.Prerelease("v"+version) != "" {
		return 0, 0, 0, fmt.Errorf("%w: player version %q is not major.minor.patch", ErrRuntimeNotFound, version)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%w: player version %q: %s", ErrRuntimeNotFound, version, err)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}
