// Package rosdistro knows which ROS distributions rosforge can scaffold
// and which Ubuntu base and language standards each one pairs with.
package rosdistro

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed ros_variants.yaml
var variantsYAML []byte

// Variant describes one supported ROS distribution.
type Variant struct {
	Distro        string `yaml:"ros_distro"`
	ROSVersion    int    `yaml:"ros_version"`
	UbuntuVersion string `yaml:"ubuntu_version"`
	CVersion      string `yaml:"c_version"`
	CppVersion    string `yaml:"cpp_version"`
	PythonVersion string `yaml:"python_version"`
}

// ROS1 reports whether the variant belongs to the first ROS generation,
// which decides between the catkin and colcon build pipelines.
func (v Variant) ROS1() bool {
	return v.ROSVersion == 1
}

var variants = mustParse(variantsYAML)

func mustParse(data []byte) map[string]Variant {
	var parsed map[string]Variant
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		panic(fmt.Sprintf("rosdistro: corrupt variant catalog: %v", err))
	}
	if len(parsed) == 0 {
		panic("rosdistro: variant catalog is empty")
	}
	for name, v := range parsed {
		if v.Distro != name {
			panic(fmt.Sprintf("rosdistro: variant %q declares mismatched distro %q", name, v.Distro))
		}
		if v.ROSVersion != 1 && v.ROSVersion != 2 {
			panic(fmt.Sprintf("rosdistro: variant %q has unsupported ros_version %d", name, v.ROSVersion))
		}
	}
	return parsed
}

// Lookup returns the variant for the given distro name.
func Lookup(distro string) (Variant, error) {
	v, ok := variants[strings.ToLower(strings.TrimSpace(distro))]
	if !ok {
		return Variant{}, fmt.Errorf("unsupported ROS distro %q. Supported distros: %s", distro, Supported())
	}
	return v, nil
}

// All returns every supported variant, ordered by ROS generation and name.
func All() []Variant {
	out := make([]Variant, 0, len(variants))
	for _, v := range variants {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ROSVersion != out[j].ROSVersion {
			return out[i].ROSVersion < out[j].ROSVersion
		}
		return out[i].Distro < out[j].Distro
	})
	return out
}

// Supported returns a human-readable list such as
// "noetic (ros1), humble (ros2), jazzy (ros2)".
func Supported() string {
	parts := make([]string, 0, len(variants))
	for _, v := range All() {
		parts = append(parts, fmt.Sprintf("%s (ros%d)", v.Distro, v.ROSVersion))
	}
	return strings.Join(parts, ", ")
}
