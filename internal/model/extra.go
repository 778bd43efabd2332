package model

import (
	"encoding/json"
	"fmt"
)

// extraFields returns the members of the JSON object data that are not in
// known, or nil when there are none.
func extraFields(data []byte, known ...string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(fields, k)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

// marshalWithExtra encodes v and adds the extra members v does not define
func marshalWithExtra(v interface{}, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to merge extra fields: %w", err)
	}
	for k, raw := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = raw
		}
	}
	return json.Marshal(fields)
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, raw := range extra {
		out[k] = append(json.RawMessage(nil), raw...)
	}
	return out
}

type proteinEntryFields ProteinEntry

func (p ProteinEntry) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(proteinEntryFields(p), p.Extra)
}

func (p *ProteinEntry) UnmarshalJSON(data []byte) error {
	var f proteinEntryFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	extra, err := extraFields(data, "sequence", "count", "msa")
	if err != nil {
		return err
	}
	*p = ProteinEntry(f)
	p.Extra = extra
	return nil
}

type ligandEntryFields LigandEntry

func (l LigandEntry) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(ligandEntryFields(l), l.Extra)
}

func (l *LigandEntry) UnmarshalJSON(data []byte) error {
	var f ligandEntryFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	extra, err := extraFields(data, "ligand", "count")
	if err != nil {
		return err
	}
	*l = LigandEntry(f)
	l.Extra = extra
	return nil
}

type jobDocumentFields JobDocument

func (d JobDocument) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(jobDocumentFields(d), d.Extra)
}

func (d *JobDocument) UnmarshalJSON(data []byte) error {
	var f jobDocumentFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	extra, err := extraFields(data, "sequences", "name", "modelSeeds")
	if err != nil {
		return err
	}
	*d = JobDocument(f)
	d.Extra = extra
	return nil
}
