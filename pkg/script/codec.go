package script

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/EvgenyM/audiveris/pkg/edit"
)

// formatVersion tags the persisted script layout.
const formatVersion = 1

var (
	ErrBadVersion = errors.New("unsupported script version")
	ErrBadOpening = errors.New("unknown opening kind")
)

var opKindNames = map[edit.OpKind]string{
	edit.Do:   "DO",
	edit.Undo: "UNDO",
	edit.Redo: "REDO",
}

type scriptJSON struct {
	Version      int       `json:"version"`
	Sheet        string    `json:"sheet"`
	Transactions []txnJSON `json:"transactions"`
}

type txnJSON struct {
	Opening string      `json:"opening"`
	Tasks   []edit.Task `json:"tasks"`
}

// Save serializes the script and flags it as consistent with storage.
func (s *Script) Save(w io.Writer) error {
	out := scriptJSON{
		Version: formatVersion,
		Sheet:   s.path,
	}
	for _, txn := range s.transactions {
		out.Transactions = append(out.Transactions, txnJSON{
			Opening: opKindNames[txn.Opening()],
			Tasks:   txn.Tasks(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	err := enc.Encode(out)
	if err != nil {
		return errors.Wrap(err, "unable to encode script")
	}

	s.SetStored()

	return nil
}

// Load reconstructs a script from its serialized form. The sheet is not
// materialized; Run resolves it by the recorded path.
func Load(r io.Reader) (*Script, error) {
	var in scriptJSON
	err := json.NewDecoder(r).Decode(&in)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode script")
	}
	if in.Version != formatVersion {
		return nil, errors.Wrapf(ErrBadVersion, "version %d", in.Version)
	}

	s := &Script{path: in.Sheet}
	for i, txn := range in.Transactions {
		opening, err := opKindOf(txn.Opening)
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %d", i)
		}

		t := edit.NewTransaction(opening)
		for _, task := range txn.Tasks {
			if err := t.Add(task); err != nil {
				return nil, errors.Wrapf(err, "transaction %d", i)
			}
		}
		t.Close()
		s.transactions = append(s.transactions, t)
	}

	// What was just loaded is, by definition, what storage holds.
	s.storedCount = len(s.transactions)

	return s, nil
}

func opKindOf(name string) (edit.OpKind, error) {
	for kind, n := range opKindNames {
		if n == name {
			return kind, nil
		}
	}
	return 0, errors.Wrap(ErrBadOpening, name)
}
