package timer

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// setSchedule returns the YAML with on.schedule set to a single cron entry.
// A bare scalar or sequence `on:` value is normalized into a mapping with
// the existing triggers preserved as keys. hadSchedule reports whether a
// schedule trigger was already present.
func setSchedule(data []byte, cronExpr string) (out []byte, hadSchedule bool, err error) {
	root, doc, err := parseWorkflowYAML(data)
	if err != nil {
		return nil, false, err
	}

	onNode := mappingValue(root, "on")
	if onNode == nil {
		onNode = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		setMappingValue(root, "on", onNode)
	} else if onNode.Kind != yaml.MappingNode {
		normalized := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		switch onNode.Kind {
		case yaml.ScalarNode:
			// on: push
			if onNode.Tag != "!!null" {
				setMappingValue(normalized, onNode.Value, nullNode())
			}
		case yaml.SequenceNode:
			// on: [push, workflow_dispatch]
			for _, trigger := range onNode.Content {
				setMappingValue(normalized, trigger.Value, nullNode())
			}
		default:
			return nil, false, fmt.Errorf("unsupported 'on' value of kind %d", onNode.Kind)
		}
		*onNode = *normalized
	}

	hadSchedule = mappingValue(onNode, "schedule") != nil

	schedule := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	entry := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	setMappingValue(entry, "cron", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: cronExpr})
	schedule.Content = append(schedule.Content, entry)
	setMappingValue(onNode, "schedule", schedule)

	out, err = encodeWorkflowYAML(doc)
	return out, hadSchedule, err
}

// unsetSchedule returns the YAML with on.schedule removed. hadSchedule
// reports whether there was one to remove; when false the returned bytes
// are the input unchanged.
func unsetSchedule(data []byte) (out []byte, hadSchedule bool, err error) {
	root, doc, err := parseWorkflowYAML(data)
	if err != nil {
		return nil, false, err
	}

	onNode := mappingValue(root, "on")
	if onNode == nil || onNode.Kind != yaml.MappingNode {
		return data, false, nil
	}
	if !deleteMappingKey(onNode, "schedule") {
		return data, false, nil
	}

	out, err = encodeWorkflowYAML(doc)
	return out, true, err
}

func parseWorkflowYAML(data []byte) (root, doc *yaml.Node, err error) {
	doc = &yaml.Node{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, nil, fmt.Errorf("parsing workflow YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		// Empty file: synthesize an empty mapping document.
		root = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		doc = &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
		return root, doc, nil
	}
	root = doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("workflow YAML root is not a mapping")
	}
	return root, doc, nil
}

func encodeWorkflowYAML(doc *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding workflow YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// mappingValue returns the value node for key, or nil. GitHub workflow files
// sometimes quote "on", so matching is on the scalar value regardless of
// style.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func setMappingValue(m *yaml.Node, key string, val *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = val
			return
		}
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	m.Content = append(m.Content, keyNode, val)
}

func deleteMappingKey(m *yaml.Node, key string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return true
		}
	}
	return false
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
