// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package ast

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/asdl-lang/asdl-go/pkg/util/source"
)

// ParseDocument parses the contents of a source file into a document.  The
// YAML dialect uses mappings whose authored order is significant, hence
// decoding walks the raw node tree rather than unmarshalling into Go maps.
// Any returned error is a host-level parse failure; the import resolver
// converts it into an ImportParseFailed diagnostic.
func ParseDocument(file *source.File) (*Document, error) {
	var root yaml.Node
	//
	if err := yaml.Unmarshal(file.Contents(), &root); err != nil {
		return nil, err
	}
	//
	doc := &Document{Path: file.Path()}
	// An empty file yields a zero document node.
	if len(root.Content) == 0 {
		return doc, nil
	}
	//
	body := root.Content[0]
	//
	if err := expectKind(body, yaml.MappingNode, "document"); err != nil {
		return nil, err
	}
	//
	for _, p := range pairs(body) {
		key, value := p.Key, p.Value
		var err error
		//
		switch key.Value {
		case "top":
			doc.Top = value.Value
			doc.TopSpan = spanOf(value)
		case "imports":
			err = decodeImports(doc, value)
		case "modules":
			err = decodeModules(doc, value)
		case "devices":
			err = decodeDevices(doc, value)
		}
		//
		if err != nil {
			return nil, err
		}
	}
	//
	return doc, nil
}

func decodeImports(doc *Document, node *yaml.Node) error {
	if err := expectKind(node, yaml.MappingNode, "imports"); err != nil {
		return err
	}
	//
	for _, p := range pairs(node) {
		key, value := p.Key, p.Value
		doc.Imports = append(doc.Imports, &Import{key.Value, value.Value, spanOf(key)})
	}
	//
	return nil
}

func decodeModules(doc *Document, node *yaml.Node) error {
	if err := expectKind(node, yaml.MappingNode, "modules"); err != nil {
		return err
	}
	//
	for _, p := range pairs(node) {
		key, value := p.Key, p.Value
		module := &Module{Name: key.Value, Span: spanOf(key)}
		//
		if err := expectKind(value, yaml.MappingNode, "module %q", key.Value); err != nil {
			return err
		}
		//
		for _, p := range pairs(value) {
			mkey, mvalue := p.Key, p.Value
			var err error
			//
			switch mkey.Value {
			case "variables":
				module.Variables, err = decodeVariables(mvalue)
			case "instances":
				err = decodeInstances(module, mvalue)
			case "nets":
				err = decodeNets(module, mvalue)
			}
			//
			if err != nil {
				return err
			}
		}
		//
		doc.Modules = append(doc.Modules, module)
	}
	//
	return nil
}

func decodeInstances(module *Module, node *yaml.Node) error {
	if err := expectKind(node, yaml.MappingNode, "instances of %q", module.Name); err != nil {
		return err
	}
	//
	for _, p := range pairs(node) {
		key, value := p.Key, p.Value
		module.Instances = append(module.Instances,
			&Instance{key.Value, value.Value, spanOf(key), spanOf(value)})
	}
	//
	return nil
}

func decodeNets(module *Module, node *yaml.Node) error {
	if err := expectKind(node, yaml.MappingNode, "nets of %q", module.Name); err != nil {
		return err
	}
	//
	for _, p := range pairs(node) {
		key, value := p.Key, p.Value
		net := &Net{Name: key.Value, Span: spanOf(key)}
		//
		if err := expectKind(value, yaml.SequenceNode, "net %q", key.Value); err != nil {
			return err
		}
		// A net value is either a flat list of endpoint tokens, or a
		// list-of-lists whose group slices feed the schematic hints.
		for _, item := range value.Content {
			if item.Kind == yaml.SequenceNode {
				start := len(net.Endpoints)
				//
				for _, sub := range item.Content {
					net.Endpoints = append(net.Endpoints, &EndpointRef{sub.Value, spanOf(sub)})
				}
				//
				net.Groups = append(net.Groups, GroupSlice{start, len(net.Endpoints) - start})
			} else {
				net.Endpoints = append(net.Endpoints, &EndpointRef{item.Value, spanOf(item)})
			}
		}
		// Mixed flat/grouped values degrade to flat.
		if len(net.Groups) > 0 && groupedCount(net.Groups) != len(net.Endpoints) {
			net.Groups = nil
		}
		//
		module.Nets = append(module.Nets, net)
	}
	//
	return nil
}

func decodeDevices(doc *Document, node *yaml.Node) error {
	if err := expectKind(node, yaml.MappingNode, "devices"); err != nil {
		return err
	}
	//
	for _, p := range pairs(node) {
		key, value := p.Key, p.Value
		device := &Device{Name: key.Value, Span: spanOf(key)}
		//
		if err := expectKind(value, yaml.MappingNode, "device %q", key.Value); err != nil {
			return err
		}
		//
		for _, p := range pairs(value) {
			dkey, dvalue := p.Key, p.Value
			var err error
			//
			switch dkey.Value {
			case "ports":
				err = decodePorts(device, dvalue)
			case "params":
				device.Params, err = decodeParams(dvalue)
			case "variables":
				device.Variables, err = decodeVariables(dvalue)
			case "backends":
				err = decodeBackends(device, dvalue)
			}
			//
			if err != nil {
				return err
			}
		}
		//
		doc.Devices = append(doc.Devices, device)
	}
	//
	return nil
}

func decodePorts(device *Device, node *yaml.Node) error {
	if err := expectKind(node, yaml.SequenceNode, "ports of %q", device.Name); err != nil {
		return err
	}
	//
	for _, item := range node.Content {
		device.Ports = append(device.Ports, &PortRef{item.Value, spanOf(item)})
	}
	//
	return nil
}

func decodeBackends(device *Device, node *yaml.Node) error {
	if err := expectKind(node, yaml.MappingNode, "backends of %q", device.Name); err != nil {
		return err
	}
	//
	for _, p := range pairs(node) {
		key, value := p.Key, p.Value
		entry := &BackendEntry{Name: key.Value, Span: spanOf(key)}
		//
		if err := expectKind(value, yaml.MappingNode, "backend %q", key.Value); err != nil {
			return err
		}
		//
		for _, p := range pairs(value) {
			bkey, bvalue := p.Key, p.Value
			switch bkey.Value {
			case "template":
				entry.Template = bvalue.Value
				entry.TemplateSpan = spanOf(bvalue)
			case "params":
				params, err := decodeParams(bvalue)
				//
				if err != nil {
					return err
				}
				//
				entry.Params = params
			default:
				// Everything else is a free-form property.
				entry.Props = append(entry.Props,
					&Param{bkey.Value, render(bvalue), spanOf(bkey)})
			}
		}
		//
		device.Backends = append(device.Backends, entry)
	}
	//
	return nil
}

func decodeParams(node *yaml.Node) ([]*Param, error) {
	if err := expectKind(node, yaml.MappingNode, "params"); err != nil {
		return nil, err
	}
	//
	var params []*Param
	//
	for _, p := range pairs(node) {
		key, value := p.Key, p.Value
		params = append(params, &Param{key.Value, render(value), spanOf(key)})
	}
	//
	return params, nil
}

func decodeVariables(node *yaml.Node) ([]*Variable, error) {
	if err := expectKind(node, yaml.MappingNode, "variables"); err != nil {
		return nil, err
	}
	//
	var variables []*Variable
	//
	for _, p := range pairs(node) {
		key, value := p.Key, p.Value
		variables = append(variables, &Variable{key.Value, render(value), spanOf(key)})
	}
	//
	return variables, nil
}

// render converts a scalar node into its canonical textual form: booleans as
// "1"/"0", integers and floats in decimal, everything else verbatim.
func render(node *yaml.Node) string {
	switch node.Tag {
	case "!!bool":
		var b bool
		//
		if node.Decode(&b) == nil {
			if b {
				return "1"
			}
			//
			return "0"
		}
	case "!!int":
		var i int64
		//
		if node.Decode(&i) == nil {
			return strconv.FormatInt(i, 10)
		}
	case "!!float":
		var f float64
		//
		if node.Decode(&f) == nil {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
	}
	//
	return node.Value
}

// pair is a single (key, value) entry of a mapping node.
type pair struct {
	Key, Value *yaml.Node
}

// pairs returns the (key, value) entries of a mapping node in authored
// order.
func pairs(node *yaml.Node) []pair {
	var out []pair
	//
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, pair{node.Content[i], node.Content[i+1]})
	}
	//
	return out
}

func expectKind(node *yaml.Node, kind yaml.Kind, format string, args ...any) error {
	if node.Kind != kind {
		return fmt.Errorf("%s: unexpected YAML shape at line %d", fmt.Sprintf(format, args...), node.Line)
	}
	//
	return nil
}

func spanOf(node *yaml.Node) source.Span {
	start := source.Position{Line: node.Line, Column: node.Column}
	end := start
	//
	if node.Kind == yaml.ScalarNode {
		end.Column += len(node.Value)
	}
	//
	return source.NewSpan(start, end)
}

func groupedCount(groups []GroupSlice) int {
	var n int
	//
	for _, g := range groups {
		n += g.Count
	}
	//
	return n
}
