package pipeline

// PredictorTag selects a BranchPredictor variant for the factory.
type PredictorTag string

// Supported predictor variants.
const (
	TagStaticNT    PredictorTag = "static-nt"
	TagStaticT     PredictorTag = "static-t"
	TagBTFN        PredictorTag = "btfn"
	TagBimodal1Bit PredictorTag = "1bit"
	TagBimodal2Bit PredictorTag = "2bit"
	TagGshare      PredictorTag = "gshare"
	TagLocal       PredictorTag = "local"
	TagTournament  PredictorTag = "tournament"
)

// Default table-sizing parameters, in index/history bits.
const (
	DefaultTableBits   uint = 8 // 2^8 = 256-entry BHT/chooser
	DefaultHistoryBits uint = 8 // global history register width for gshare
	DefaultLocalBits   uint = 8 // local-history table index bits
	DefaultPatternBits uint = 8 // per-PC local-history width / PHT index bits
)

// PredictorConfig parameterizes the factory. Fields unused by a given tag
// are ignored.
type PredictorConfig struct {
	Tag PredictorTag

	K uint // BHT/chooser index bits (bimodal, gshare, tournament chooser)
	H uint // global history register width (gshare)
	L uint // local-history table index bits (local, tournament)
	P uint // local pattern length / PHT index bits (local, tournament)
}

// PredictorStats reports prediction accuracy for a BranchPredictor.
type PredictorStats struct {
	Total        uint64
	Correct      uint64
	Mispredicted uint64
}

// Accuracy returns Correct/Total, or 0 when Total is 0.
func (s PredictorStats) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// BranchPredictor is the capability set every predictor variant implements:
// a pure prediction query, an update that advances internal state and
// statistics, a reset, and a statistics report. Predict must be a pure
// function of the table state; Update recomputes the prediction internally
// rather than trusting a cached value from an earlier Predict call.
type BranchPredictor interface {
	Predict(pc, target uint32) bool
	Update(pc uint32, taken bool, target uint32)
	Reset()
	Stats() PredictorStats
}

// statsTracker accumulates prediction accuracy, shared by every variant.
type statsTracker struct {
	total        uint64
	correct      uint64
	mispredicted uint64
}

// record compares a (recomputed) prediction against the actual outcome.
func (s *statsTracker) record(predicted, actual bool) {
	s.total++
	if predicted == actual {
		s.correct++
	} else {
		s.mispredicted++
	}
}

func (s *statsTracker) snapshot() PredictorStats {
	return PredictorStats{Total: s.total, Correct: s.correct, Mispredicted: s.mispredicted}
}

func (s *statsTracker) reset() {
	*s = statsTracker{}
}

func mask(bits uint) uint32 {
	if bits >= 32 {
		return 0xFFFFFFFF
	}
	return (uint32(1) << bits) - 1
}

func minBits(a, b uint) uint {
	if a < b {
		return a
	}
	return b
}

func btou(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// saturatingUpdate advances a 2-bit counter (SNT=0, WNT=1, WT=2, ST=3)
// toward ST on taken and toward SNT on not-taken, clamped to [0,3].
func saturatingUpdate(counter uint8, taken bool) uint8 {
	if taken {
		if counter < 3 {
			return counter + 1
		}
		return counter
	}
	if counter > 0 {
		return counter - 1
	}
	return counter
}

func orDefault(v, def uint) uint {
	if v == 0 {
		return def
	}
	return v
}

// NewBranchPredictor constructs the predictor variant named by cfg.Tag.
func NewBranchPredictor(cfg PredictorConfig) BranchPredictor {
	switch cfg.Tag {
	case TagStaticT:
		return NewStaticPredictor(true)
	case TagBTFN:
		return NewBTFNPredictor()
	case TagBimodal1Bit:
		return NewBimodal1Bit(orDefault(cfg.K, DefaultTableBits))
	case TagBimodal2Bit:
		return NewBimodal2Bit(orDefault(cfg.K, DefaultTableBits))
	case TagGshare:
		return NewGshare(orDefault(cfg.K, DefaultTableBits), orDefault(cfg.H, DefaultHistoryBits))
	case TagLocal:
		return NewLocalHistory(orDefault(cfg.L, DefaultLocalBits), orDefault(cfg.P, DefaultPatternBits))
	case TagTournament:
		return NewTournament(cfg)
	case TagStaticNT:
		fallthrough
	default:
		return NewStaticPredictor(false)
	}
}

// staticPredictor always returns the same prediction (static-NT/static-T).
type staticPredictor struct {
	taken bool
	stats statsTracker
}

// NewStaticPredictor creates a predictor that always predicts taken (or
// always not-taken).
func NewStaticPredictor(taken bool) BranchPredictor {
	return &staticPredictor{taken: taken}
}

func (p *staticPredictor) Predict(pc, target uint32) bool { return p.taken }

func (p *staticPredictor) Update(pc uint32, taken bool, target uint32) {
	p.stats.record(p.Predict(pc, target), taken)
}

func (p *staticPredictor) Reset()                { p.stats.reset() }
func (p *staticPredictor) Stats() PredictorStats { return p.stats.snapshot() }

// btfnPredictor predicts taken for backward branches, not-taken for
// forward branches.
type btfnPredictor struct {
	stats statsTracker
}

// NewBTFNPredictor creates a backward-taken/forward-not-taken predictor.
func NewBTFNPredictor() BranchPredictor {
	return &btfnPredictor{}
}

func (p *btfnPredictor) Predict(pc, target uint32) bool { return target < pc }

func (p *btfnPredictor) Update(pc uint32, taken bool, target uint32) {
	p.stats.record(p.Predict(pc, target), taken)
}

func (p *btfnPredictor) Reset()                { p.stats.reset() }
func (p *btfnPredictor) Stats() PredictorStats { return p.stats.snapshot() }

// bimodal1Bit is a table of 2^k single-bit last-outcome predictors indexed
// by (pc >> 2) mod 2^k.
type bimodal1Bit struct {
	table []bool
	k     uint
	stats statsTracker
}

// NewBimodal1Bit creates a 1-bit bimodal predictor with a 2^k-entry table.
func NewBimodal1Bit(k uint) BranchPredictor {
	return &bimodal1Bit{table: make([]bool, uint32(1)<<k), k: k}
}

func (p *bimodal1Bit) index(pc uint32) uint32 {
	return (pc >> 2) & mask(p.k)
}

func (p *bimodal1Bit) Predict(pc, target uint32) bool {
	return p.table[p.index(pc)]
}

func (p *bimodal1Bit) Update(pc uint32, taken bool, target uint32) {
	idx := p.index(pc)
	p.stats.record(p.table[idx], taken)
	p.table[idx] = taken
}

func (p *bimodal1Bit) Reset() {
	p.stats.reset()
	for i := range p.table {
		p.table[i] = false
	}
}

func (p *bimodal1Bit) Stats() PredictorStats { return p.stats.snapshot() }

// bimodal2Bit is a table of 2^k 2-bit saturating counters indexed by
// (pc >> 2) mod 2^k. Taken is predicted when the counter is >= 2 (WT/ST);
// the initial state is WNT (1).
type bimodal2Bit struct {
	table []uint8
	k     uint
	stats statsTracker
}

// NewBimodal2Bit creates a 2-bit saturating-counter bimodal predictor.
func NewBimodal2Bit(k uint) BranchPredictor {
	table := make([]uint8, uint32(1)<<k)
	for i := range table {
		table[i] = 1 // WNT
	}
	return &bimodal2Bit{table: table, k: k}
}

func (p *bimodal2Bit) index(pc uint32) uint32 {
	return (pc >> 2) & mask(p.k)
}

func (p *bimodal2Bit) Predict(pc, target uint32) bool {
	return p.table[p.index(pc)] >= 2
}

func (p *bimodal2Bit) Update(pc uint32, taken bool, target uint32) {
	idx := p.index(pc)
	p.stats.record(p.table[idx] >= 2, taken)
	p.table[idx] = saturatingUpdate(p.table[idx], taken)
}

func (p *bimodal2Bit) Reset() {
	p.stats.reset()
	for i := range p.table {
		p.table[i] = 1
	}
}

func (p *bimodal2Bit) Stats() PredictorStats { return p.stats.snapshot() }

// gsharePredictor indexes a table of 2-bit saturating counters by
// (pc >> 2) XOR global-history.
type gsharePredictor struct {
	table   []uint8
	history uint32
	k, h    uint
	stats   statsTracker
}

// NewGshare creates a gshare predictor with a 2^k-entry counter table and
// an h-bit global history register.
func NewGshare(k, h uint) BranchPredictor {
	table := make([]uint8, uint32(1)<<k)
	for i := range table {
		table[i] = 1
	}
	return &gsharePredictor{table: table, k: k, h: h}
}

func (p *gsharePredictor) index(pc uint32) uint32 {
	pcPart := (pc >> 2) & mask(p.k)
	ghPart := p.history & mask(minBits(p.h, p.k))
	return pcPart ^ ghPart
}

func (p *gsharePredictor) Predict(pc, target uint32) bool {
	return p.table[p.index(pc)] >= 2
}

func (p *gsharePredictor) Update(pc uint32, taken bool, target uint32) {
	idx := p.index(pc)
	p.stats.record(p.table[idx] >= 2, taken)
	p.table[idx] = saturatingUpdate(p.table[idx], taken)
	p.history = ((p.history << 1) | btou(taken)) & mask(p.h)
}

func (p *gsharePredictor) Reset() {
	p.stats.reset()
	p.history = 0
	for i := range p.table {
		p.table[i] = 1
	}
}

func (p *gsharePredictor) Stats() PredictorStats { return p.stats.snapshot() }

// localHistoryPredictor is a two-level predictor: a local-history table of
// 2^l entries (each a p-bit per-PC history) indexes a pattern-history
// table of 2^p 2-bit saturating counters.
type localHistoryPredictor struct {
	localTable []uint32
	pht        []uint8
	l, p       uint
	stats      statsTracker
}

// NewLocalHistory creates a local-history predictor with a 2^l-entry
// local-history table and a 2^p-entry pattern-history table.
func NewLocalHistory(l, p uint) BranchPredictor {
	pht := make([]uint8, uint32(1)<<p)
	for i := range pht {
		pht[i] = 1
	}
	return &localHistoryPredictor{
		localTable: make([]uint32, uint32(1)<<l),
		pht:        pht,
		l:          l,
		p:          p,
	}
}

func (lh *localHistoryPredictor) localIndex(pc uint32) uint32 {
	return (pc >> 2) & mask(lh.l)
}

func (lh *localHistoryPredictor) Predict(pc, target uint32) bool {
	history := lh.localTable[lh.localIndex(pc)]
	return lh.pht[history] >= 2
}

func (lh *localHistoryPredictor) Update(pc uint32, taken bool, target uint32) {
	li := lh.localIndex(pc)
	history := lh.localTable[li]
	lh.stats.record(lh.pht[history] >= 2, taken)
	lh.pht[history] = saturatingUpdate(lh.pht[history], taken)
	lh.localTable[li] = ((history << 1) | btou(taken)) & mask(lh.p)
}

func (lh *localHistoryPredictor) Reset() {
	lh.stats.reset()
	for i := range lh.localTable {
		lh.localTable[i] = 0
	}
	for i := range lh.pht {
		lh.pht[i] = 1
	}
}

func (lh *localHistoryPredictor) Stats() PredictorStats { return lh.stats.snapshot() }

// tournamentPredictor chooses between an owned gshare predictor and an
// owned local-history predictor via a chooser table of 2-bit counters,
// indexed by (pc >> 2) mod 2^k. The chooser picks global when its counter
// is >= 2, local otherwise. Composition, not inheritance.
type tournamentPredictor struct {
	global  *gsharePredictor
	local   *localHistoryPredictor
	chooser []uint8
	k       uint
	stats   statsTracker
}

// NewTournament creates a tournament predictor composing a fresh gshare
// and local-history sub-predictor from cfg's parameters.
func NewTournament(cfg PredictorConfig) BranchPredictor {
	k := orDefault(cfg.K, DefaultTableBits)
	h := orDefault(cfg.H, DefaultHistoryBits)
	l := orDefault(cfg.L, DefaultLocalBits)
	p := orDefault(cfg.P, DefaultPatternBits)

	chooser := make([]uint8, uint32(1)<<k)
	for i := range chooser {
		chooser[i] = 1
	}

	return &tournamentPredictor{
		global:  NewGshare(k, h).(*gsharePredictor),
		local:   NewLocalHistory(l, p).(*localHistoryPredictor),
		chooser: chooser,
		k:       k,
	}
}

func (t *tournamentPredictor) chooserIndex(pc uint32) uint32 {
	return (pc >> 2) & mask(t.k)
}

func (t *tournamentPredictor) Predict(pc, target uint32) bool {
	if t.chooser[t.chooserIndex(pc)] >= 2 {
		return t.global.Predict(pc, target)
	}
	return t.local.Predict(pc, target)
}

func (t *tournamentPredictor) Update(pc uint32, taken bool, target uint32) {
	globalPred := t.global.Predict(pc, target)
	localPred := t.local.Predict(pc, target)
	predicted := t.Predict(pc, target)
	t.stats.record(predicted, taken)

	// Both sub-predictors always see the outcome, win or lose.
	t.global.Update(pc, taken, target)
	t.local.Update(pc, taken, target)

	globalRight := globalPred == taken
	localRight := localPred == taken
	if globalRight == localRight {
		return
	}

	idx := t.chooserIndex(pc)
	if globalRight {
		if t.chooser[idx] < 3 {
			t.chooser[idx]++
		}
	} else if t.chooser[idx] > 0 {
		t.chooser[idx]--
	}
}

func (t *tournamentPredictor) Reset() {
	t.stats.reset()
	t.global.Reset()
	t.local.Reset()
	for i := range t.chooser {
		t.chooser[i] = 1
	}
}

func (t *tournamentPredictor) Stats() PredictorStats { return t.stats.snapshot() }
