package script

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	lua "github.com/Shopify/go-lua"
)

// Event list load errors. Each failure mode gets its own sentinel so the
// caller can tell configuration problems apart; none of them disturb the
// previously loaded bindings.
var (
	// ErrNotInitialized means there is no runtime to load handlers into.
	ErrNotInitialized = errors.New("script: scripting is not initialized")

	// ErrEventListRead means the document could not be read from disk.
	ErrEventListRead = errors.New("script: could not read event list")

	// ErrEventListParse means the document is not well-formed XML.
	ErrEventListParse = errors.New("script: event list is not well-formed XML")

	// ErrEventListEmpty means the document has no root element at all.
	ErrEventListEmpty = errors.New("script: event list document is empty")

	// ErrEventListRoot means the root element is not <scripts>.
	ErrEventListRoot = errors.New("script: event list root element must be <scripts>")
)

// eventListDoc mirrors the hook config document:
//
//	<scripts>
//	    <script event="SHIP_LOGIN" file="login.lua"/>
//	    ...
//	</scripts>
type eventListDoc struct {
	Scripts []eventListEntry `xml:"script"`
}

type eventListEntry struct {
	Event string `xml:"event,attr"`
	File  string `xml:"file,attr"`
}

// binding is one validated (action, file) pair ready to register.
type binding struct {
	action Action
	file   string
}

// parseEventList reads and validates the document without touching the
// runtime, so a bad document can never damage live state. Malformed
// entries are skipped with a warning and are never fatal.
func parseEventList(path string) ([]binding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEventListRead, err)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))

	// Find the root element by hand so "empty" and "wrong root" are
	// distinguishable from garden-variety parse errors.
	var root xml.StartElement
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, ErrEventListEmpty
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEventListParse, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			root = se
			break
		}
	}
	if root.Name.Local != "scripts" {
		return nil, fmt.Errorf("%w: got <%s>", ErrEventListRoot, root.Name.Local)
	}

	var doc eventListDoc
	if err := dec.DecodeElement(&doc, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEventListParse, err)
	}

	var bindings []binding
	for i, entry := range doc.Scripts {
		if entry.Event == "" || entry.File == "" {
			log.Printf("WARNING: incomplete script entry %d in %s", i+1, path)
			continue
		}
		action := ParseAction(entry.Event)
		if action == ActionInvalid {
			log.Printf("WARNING: ignoring unknown event %q in %s", entry.Event, path)
			continue
		}
		bindings = append(bindings, binding{action: action, file: entry.File})
	}
	return bindings, nil
}

// LoadEventList replaces the entire handler registry with the bindings in
// the document at path. The swap is wholesale: every previously bound
// handler is released once the new set is in place. On any parse or
// validation failure the previous bindings survive untouched.
func (b *Bridge) LoadEventList(path string) error {
	bindings, err := parseEventList(path)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == nil {
		return ErrNotInitialized
	}

	l := b.state
	top := l.Top()
	defer l.SetTop(top)

	l.Field(lua.RegistryIndex, handlerTableKey)

	next := make(map[Action]*handlerSlot, len(bindings))
	for _, bind := range bindings {
		path := b.scriptPath(bind.file)
		if err := lua.LoadFile(l, path, ""); err != nil {
			log.Printf("WARNING: could not load script %q: %v", path, err)
			// A failed load leaves its error message on the stack; drop
			// it so the handler table stays at -2 for the next entry.
			l.Pop(1)
			continue
		}
		key := b.nextKey
		b.nextKey++
		l.RawSetInt(-2, key)

		if dup, ok := next[bind.action]; ok {
			log.Printf("WARNING: redefining event %s within %s (was %s)",
				bind.action, path, dup.file)
			l.PushNil()
			l.RawSetInt(-2, dup.key)
		}
		next[bind.action] = &handlerSlot{key: key, file: bind.file}
		log.Printf("Script for event %s added as id %d (%s)", bind.action, key, bind.file)
	}

	// New set is in; release everything from the old one.
	for _, slot := range b.handlers {
		l.PushNil()
		l.RawSetInt(-2, slot.key)
	}
	b.handlers = next
	return nil
}

// scriptPath resolves a config-document filename against the scripts
// directory.
func (b *Bridge) scriptPath(file string) string {
	if b.dir == "" {
		return file
	}
	return filepath.Join(b.dir, file)
}
