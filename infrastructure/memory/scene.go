package memory

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"dopesheet/domain/core/valueobjects"
	pkgerrors "dopesheet/pkg/errors"
)

// SceneFile is the YAML description of a node graph
type SceneFile struct {
	Frame float64     `yaml:"frame"`
	Nodes []SceneNode `yaml:"nodes"`
}

// SceneNode describes one node of a scene
type SceneNode struct {
	Name   string      `yaml:"name"`
	Type   string      `yaml:"type"`
	Plugin string      `yaml:"plugin"`
	Group  string      `yaml:"group"`
	Inputs []string    `yaml:"inputs"`
	First  float64     `yaml:"first"`
	Last   float64     `yaml:"last"`
	Offset float64     `yaml:"offset"`
	Speed  float64     `yaml:"speed"`
	Knobs  []SceneKnob `yaml:"knobs"`

	// Lifetime is an enabled [first, last] lifetime, absent for none
	Lifetime []float64 `yaml:"lifetime"`
}

// SceneKnob describes an animatable knob and its keyframes
type SceneKnob struct {
	Name   string     `yaml:"name"`
	Dims   int        `yaml:"dims"`
	Values []float64  `yaml:"values"`
	Keys   []SceneKey `yaml:"keys"`
}

// SceneKey is one keyframe of a scene knob
type SceneKey struct {
	valueobjects.KeyFrame `yaml:",inline"`

	Dim int `yaml:"dim"`
}

// Scene is a loaded node graph
type Scene struct {
	Project  *Collection
	Timeline *Timeline
	// Nodes in declaration order
	Nodes  []*Node
	byName map[string]*Node
}

// Node returns the scene node declared as name
func (s *Scene) Node(name string) *Node {
	return s.byName[name]
}

// LoadSceneFile reads a scene from a YAML file
func LoadSceneFile(path string, f *Factory) (*Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open scene %s", path)
	}
	defer file.Close()
	return LoadScene(file, f)
}

// LoadScene decodes a YAML scene and builds its graph
func LoadScene(r io.Reader, f *Factory) (*Scene, error) {
	var file SceneFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, pkgerrors.NewValidationError("invalid scene file").WithCause(err)
	}
	return BuildScene(file, f)
}

// BuildScene builds the graph described by file
func BuildScene(file SceneFile, f *Factory) (*Scene, error) {
	s := &Scene{
		Project:  NewProject(),
		Timeline: NewTimeline(file.Frame),
		byName:   make(map[string]*Node),
	}

	for _, sn := range file.Nodes {
		if sn.Name == "" {
			return nil, pkgerrors.NewValidationError("scene node without a name")
		}
		if _, dup := s.byName[sn.Name]; dup {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("duplicate scene node %q", sn.Name))
		}
		n, err := buildNode(sn, f)
		if err != nil {
			return nil, err
		}
		for _, sk := range sn.Knobs {
			n.AddKnob(buildKnob(sk))
		}
		switch len(sn.Lifetime) {
		case 0:
		case 2:
			f.Lifetime(n, sn.Lifetime[0], sn.Lifetime[1], true)
		default:
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("node %q: lifetime needs a first and a last frame", sn.Name))
		}
		s.byName[sn.Name] = n
		s.Nodes = append(s.Nodes, n)
	}

	for _, sn := range file.Nodes {
		n := s.byName[sn.Name]
		if sn.Group == "" {
			s.Project.Add(n)
			continue
		}
		g, ok := s.byName[sn.Group]
		if !ok || g.inner == nil {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("node %q: %q is not a group", sn.Name, sn.Group))
		}
		g.inner.Add(n)
	}

	for _, sn := range file.Nodes {
		n := s.byName[sn.Name]
		for _, in := range sn.Inputs {
			src, ok := s.byName[in]
			if !ok {
				return nil, pkgerrors.NewValidationError(fmt.Sprintf("node %q: unknown input %q", sn.Name, in))
			}
			n.Connect(src)
		}
	}

	return s, nil
}

func buildNode(sn SceneNode, f *Factory) (*Node, error) {
	switch sn.Type {
	case "reader":
		return f.Reader(sn.Name, sn.First, sn.Last), nil
	case "time_offset":
		return f.TimeOffset(sn.Name, sn.Offset), nil
	case "frame_range":
		return f.FrameRange(sn.Name, sn.First, sn.Last), nil
	case "retime":
		speed := sn.Speed
		if speed == 0 {
			speed = 1
		}
		return f.Retime(sn.Name, speed), nil
	case "group":
		return f.Group(sn.Name), nil
	case "effect", "":
		if sn.Plugin == "" {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("node %q: effect needs a plugin", sn.Name))
		}
		return f.Effect(sn.Plugin, sn.Name), nil
	default:
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("node %q: unknown type %q", sn.Name, sn.Type))
	}
}

func buildKnob(sk SceneKnob) *Knob {
	k := NewKnob(sk.Name, sk.Dims, WithValues(sk.Values...))
	for _, key := range sk.Keys {
		if c := k.curve(key.Dim); c != nil {
			c.set(key.KeyFrame)
		}
	}
	return k
}
