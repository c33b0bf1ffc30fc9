package catalog

import (
	"encoding/binary"
	"runtime"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"

	"github.com/mol-structures/molgraph/libmolgraph"
	"github.com/mol-structures/molgraph/molgraph"
)

// Catalog database format:
//
//	gCatalogStateKey                         => catalogState (varint counters)
//
//	'G', GraphDef                            => nil
//	    one entry per unique graph added via TryAddGraph; the def itself is
//	    the key, so presence is membership
//
//	'E', EnumKey, 0x00, uvarint(triu)        => GraphDef
//	'E', EnumKey, 0xFF                       => nil (completion marker)
//	    one entry per graph of a completed enumeration; the marker is written
//	    last so a partially stored enumeration is never mistaken for a cached
//	    result

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
)

// appendGraphDef appends the catalog encoding of one graph: its coloring
// spec followed by its adjacency bits as a uvarint.
func appendGraphDef(out []byte, coloring molgraph.Coloring, triu molgraph.Triu) []byte {
	out = coloring.AppendSpecTo(out)
	var scrap [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scrap[:], uint64(triu))
	return append(out, scrap[:n]...)
}

const (
	kGraphPrefix = 'G'
	kEnumPrefix  = 'E'

	kEnumEntry    = 0x00
	kEnumComplete = 0xFF

	stateMajorVers = 2026
	stateMinorVers = 1
)

type catalogState struct {
	MajorVers int64
	MinorVers int64
	NumGraphs [molgraph.MaxNodes + 1]int64 // unique graphs added, by node count
}

func (state *catalogState) Marshal(out []byte) []byte {
	var scrap [binary.MaxVarintLen64]byte
	put := func(v int64) {
		n := binary.PutVarint(scrap[:], v)
		out = append(out, scrap[:n]...)
	}
	put(state.MajorVers)
	put(state.MinorVers)
	for _, count := range state.NumGraphs {
		put(count)
	}
	return out
}

func (state *catalogState) Unmarshal(in []byte) error {
	get := func() (int64, bool) {
		v, n := binary.Varint(in)
		if n <= 0 {
			return 0, false
		}
		in = in[n:]
		return v, true
	}
	var ok bool
	if state.MajorVers, ok = get(); !ok {
		return molgraph.ErrUnmarshal
	}
	if state.MinorVers, ok = get(); !ok {
		return molgraph.ErrUnmarshal
	}
	for i := range state.NumGraphs {
		if state.NumGraphs[i], ok = get(); !ok {
			return molgraph.ErrUnmarshal
		}
	}
	return nil
}

// catalog is a db wrapper for a graph enumeration catalog
type catalog struct {
	ctx        molgraph.CatalogContext
	readOnly   bool
	stateDirty bool
	state      catalogState
	db         *badger.DB
}

func OpenCatalog(ctx molgraph.CatalogContext, opts molgraph.CatalogOpts) (molgraph.Catalog, error) {
	cat := &catalog{
		ctx:      ctx,
		readOnly: opts.ReadOnly,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // not needed so disable for performance
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(molgraph.ErrBadCatalogParam, "DbPathName must be specified for read-only catalog")
		}
		dbOpts.InMemory = true
	}

	var err error
	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	// Once the db is open, the catalog ctx is blocked until the catalog closes
	ctx.AttachCatalog(cat)

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = true
		cat.state.MajorVers = stateMajorVers
		cat.state.MinorVers = stateMinorVers
	}
	if err == nil && (cat.state.MajorVers != stateMajorVers || cat.state.MinorVers != stateMinorVers) {
		err = errors.New("catalog version is incompatible")
	}

	if err != nil {
		cat.Close()
		return nil, err
	}
	return cat, nil
}

func (cat *catalog) loadState() error {
	return cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err == nil {
			err = item.Value(func(val []byte) error {
				return cat.state.Unmarshal(val)
			})
		}
		return err
	})
}

func (cat *catalog) flushState() {
	if !cat.stateDirty || cat.readOnly {
		return
	}
	err := cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gCatalogStateKey, cat.state.Marshal(nil))
	})
	if err != nil {
		klog.Errorf("catalog state flush failed: %v", err)
		return
	}
	cat.stateDirty = false
}

func (cat *catalog) Close() {
	cat.flushState()
	if cat.db != nil {
		cat.db.Close()
		cat.db = nil
		cat.ctx.DetachCatalog(cat)
		cat.ctx = nil
	}
}

func (cat *catalog) IsReadOnly() bool {
	return cat.readOnly
}

func (cat *catalog) NumGraphs(numNodes int) int64 {
	if numNodes < 0 || numNodes > molgraph.MaxNodes {
		return 0
	}
	if numNodes > 0 {
		return cat.state.NumGraphs[numNodes]
	}
	total := int64(0)
	for _, count := range cat.state.NumGraphs {
		total += count
	}
	return total
}

// TryAddGraph adds X's encoding to the catalog if not already present.
//
// Membership is by exact encoding: graphs arriving here are expected to have
// already passed isomorphism dedup (EnumGraphs emits one representative per
// class, and a class representative always encodes identically).
func (cat *catalog) TryAddGraph(X molgraph.GraphState) bool {
	if cat.readOnly {
		return false
	}

	var keyBuf [64]byte
	keyBuf[0] = kGraphPrefix
	key := appendGraphDef(keyBuf[:1], X.Coloring(), X.Adjacency())

	txn := cat.db.NewTransaction(true)
	defer txn.Commit()

	added := false
	_, err := txn.Get(key)
	if err == nil {
		// no-op since the key is already in the db
	} else if err == badger.ErrKeyNotFound {
		err = txn.Set(key, nil)
		added = true
	}
	if err != nil {
		klog.Errorf("catalog add failed: %v", err)
		return false
	}

	if added {
		cat.state.NumGraphs[X.NumNodes()]++
		cat.stateDirty = true
	}
	return added
}

// Select calls onHit with every cataloged graph passing the given selector.
func (cat *catalog) Select(sel molgraph.GraphSelector, onHit molgraph.OnGraphHit) {
	err := cat.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.PrefetchValues = false
		itOpts.Prefix = []byte{kGraphPrefix}
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			def := it.Item().Key()[1:]
			X, err := libmolgraph.NewGraphFromDef(def)
			if err != nil {
				return err
			}
			if sel.AllowGraph(X) {
				onHit <- X
			} else {
				X.Reclaim()
			}
		}
		return nil
	})
	if err != nil {
		klog.Errorf("catalog select failed: %v", err)
	}
}

// LoadEnum returns the cached results of a completed enumeration.
func (cat *catalog) LoadEnum(enumKey []byte) ([]molgraph.Triu, bool) {
	prefix := append([]byte{kEnumPrefix}, enumKey...)
	marker := append(append([]byte{}, prefix...), kEnumComplete)

	var trius []molgraph.Triu
	found := false

	err := cat.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(marker); err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		found = true

		itOpts := badger.DefaultIteratorOptions
		itOpts.PrefetchValues = false
		itOpts.Prefix = append(append([]byte{}, prefix...), kEnumEntry)
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			raw := it.Item().Key()[len(prefix)+1:]
			triu, numRead := binary.Uvarint(raw)
			if numRead <= 0 {
				return molgraph.ErrUnmarshal
			}
			trius = append(trius, molgraph.Triu(triu))
		}
		return nil
	})
	if err != nil {
		klog.Errorf("catalog enum load failed: %v", err)
		return nil, false
	}
	return trius, found
}

// StoreEnum records a completed enumeration, writing the completion marker
// only after every entry has been committed.
func (cat *catalog) StoreEnum(enumKey []byte, coloring molgraph.Coloring, trius []molgraph.Triu) error {
	if cat.readOnly {
		return molgraph.ErrCatalogReadOnly
	}

	prefix := append([]byte{kEnumPrefix}, enumKey...)

	wb := cat.db.NewWriteBatch()
	defer wb.Cancel()

	var scrap [binary.MaxVarintLen64]byte
	for _, triu := range trius {
		key := append(append([]byte{}, prefix...), kEnumEntry)
		n := binary.PutUvarint(scrap[:], uint64(triu))
		key = append(key, scrap[:n]...)

		if err := wb.Set(key, appendGraphDef(nil, coloring, triu)); err != nil {
			return err
		}
	}
	if err := wb.Flush(); err != nil {
		return err
	}

	marker := append(append([]byte{}, prefix...), kEnumComplete)
	return cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(marker, nil)
	})
}
