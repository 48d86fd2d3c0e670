// Package sigconfig loads a catalog of format specifications from a
// KDL document into a signature.Store. The format and the helper
// functions below are adapted from the teacher's
// internal/config/kdl_config.go, which parses its own KDL config the
// same node-walking way.
package sigconfig

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/sigscan/sigerrors"
	"github.com/standardbeagle/sigscan/signature"
)

// LoadFile reads and parses a specification catalog from path.
func LoadFile(path string) (*signature.Store, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, sigerrors.Wrap(sigerrors.KindIoError, "sigconfig.LoadFile", path, err)
	}
	return Parse(string(content))
}

// Parse reads a specification catalog of the form:
//
//	specification "lnk" {
//	    mime-type "application/x-ms-shortcut"
//	    uti "com.microsoft.shortcut"
//	    signature offset=0 bound=#true expression="4c00000001140200..."
//	}
//
// expression is hex-encoded. An absent "bound" defaults to false; an
// absent "offset" leaves the signature's Offset nil (no declared
// offset).
func Parse(content string) (*signature.Store, error) {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, sigerrors.Wrap(sigerrors.KindIoError, "sigconfig.Parse", "invalid KDL document", err)
	}

	store := signature.NewStore()

	for _, n := range doc.Nodes {
		if nodeName(n) != "specification" {
			continue
		}
		identifier, ok := firstStringArg(n)
		if !ok {
			return nil, sigerrors.New(sigerrors.KindInvalidOffset, "sigconfig.Parse", "specification node missing identifier argument")
		}

		spec, err := store.AddSpecification(identifier)
		if err != nil {
			return nil, err
		}

		for _, cn := range n.Children {
			switch nodeName(cn) {
			case "mime-type":
				if s, ok := firstStringArg(cn); ok {
					spec.AddMimeType(s)
				}
			case "uti":
				if s, ok := firstStringArg(cn); ok {
					spec.AddUTI(s)
				}
			case "signature":
				expression, offset, isBound, err := parseSignature(cn)
				if err != nil {
					return nil, sigerrors.Wrap(sigerrors.KindInvalidByteValue, "sigconfig.Parse",
						fmt.Sprintf("%s: invalid signature", identifier), err)
				}
				spec.AddSignature(expression, offset, isBound)
			}
		}
	}

	return store, nil
}

func parseSignature(n *document.Node) (expression []byte, offset *int64, isBound bool, err error) {
	expressionHex, ok := propString(n, "expression")
	if !ok {
		return nil, nil, false, fmt.Errorf("signature node missing expression property")
	}
	expression, err = hex.DecodeString(expressionHex)
	if err != nil {
		return nil, nil, false, fmt.Errorf("expression is not valid hex: %w", err)
	}

	if bound, ok := propBool(n, "bound"); ok {
		isBound = bound
	}
	if o, ok := propInt(n, "offset"); ok {
		offsetValue := int64(o)
		offset = &offsetValue
	}

	return expression, offset, isBound, nil
}

// nodeName and the prop*/first* helpers below are copied from the
// teacher's KDL-walking helpers (internal/config/kdl_config.go and
// internal/core/propagation_config.go): kdl-go's document.Node stores
// argument and property values as a plain interface{} the caller type
// switches on, not as a typed accessor.
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func propString(n *document.Node, key string) (string, bool) {
	if n.Properties == nil {
		return "", false
	}
	if v, ok := n.Properties[key]; ok {
		if s, ok2 := v.Value.(string); ok2 {
			return s, true
		}
	}
	return "", false
}

func propBool(n *document.Node, key string) (bool, bool) {
	if n.Properties == nil {
		return false, false
	}
	if v, ok := n.Properties[key]; ok {
		if b, ok2 := v.Value.(bool); ok2 {
			return b, true
		}
	}
	return false, false
}

func propInt(n *document.Node, key string) (int, bool) {
	if n.Properties == nil {
		return 0, false
	}
	if v, ok := n.Properties[key]; ok {
		switch val := v.Value.(type) {
		case int64:
			return int(val), true
		case float64:
			return int(val), true
		}
	}
	return 0, false
}
