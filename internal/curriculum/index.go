package curriculum

import (
	"strings"

	"github.com/campus-metrics/egreso/internal/textnorm"
)

const (
	// maxDepth bounds the traversal so cyclic or pathological documents
	// terminate with whatever was extracted before the cap.
	maxDepth = 16

	// maxKeySemester bounds semester detection from numeric object keys;
	// larger numeric keys are treated as unrelated.
	maxKeySemester = 12

	defaultPlanSemesters = 10
)

// nodeRole classifies a document node during traversal.
type nodeRole int

const (
	roleUnknown nodeRole = iota
	roleCourse           // carries a code-like or name-like field
)

// walkCtx is the immutable context threaded down the traversal.
type walkCtx struct {
	semester int // current semester implied by enclosing containers, 0 unknown
}

// BuildIndex scans an arbitrarily shaped curriculum document (decoded JSON:
// maps, slices, scalars) and extracts every node that looks like a course.
// The document has no fixed schema: courses may sit in a flat array, under
// semester-named keys ("Semestre 3"), under small numeric keys, or carry a
// semester field of their own. Nodes missing both code and name are dropped
// silently; no error is ever returned.
func BuildIndex(doc any) *Index {
	ix := &Index{
		ByCode: map[string]*Entry{},
		ByName: map[string]*Entry{},
	}
	seen := map[string]struct{}{}
	walk(doc, walkCtx{}, 0, ix, seen)
	return ix
}

func walk(node any, wc walkCtx, depth int, ix *Index, seen map[string]struct{}) {
	if depth > maxDepth {
		return
	}
	switch n := node.(type) {
	case []any:
		for _, item := range n {
			walk(item, wc, depth+1, ix, seen)
		}
	case map[string]any:
		// An explicit semester-like field overrides whatever the containing
		// key implied.
		if sem, ok := semesterField(n); ok {
			wc.semester = sem
		}
		if wc.semester > ix.MaxSemester {
			ix.MaxSemester = wc.semester
		}
		if total, ok := planField(n); ok && ix.PlanSemesters == 0 {
			ix.PlanSemesters = total
		}

		// A node can be a course and still contain further courses (a named
		// semester block): index it, then keep recursing.
		if classify(n) == roleCourse {
			addEntry(ix, seen, n, wc.semester)
		}

		for _, k := range sortedKeys(n) {
			child := wc
			if sem, ok := semesterFromKey(k); ok {
				child.semester = sem
				if sem > ix.MaxSemester {
					ix.MaxSemester = sem
				}
			}
			switch n[k].(type) {
			case map[string]any, []any:
				walk(n[k], child, depth+1, ix, seen)
			}
		}
	}
}

func classify(node map[string]any) nodeRole {
	if _, ok := lookupField(node, codeKeys); ok {
		return roleCourse
	}
	if _, ok := lookupField(node, nameKeys); ok {
		return roleCourse
	}
	return roleUnknown
}

func addEntry(ix *Index, seen map[string]struct{}, node map[string]any, semester int) {
	var code, name string
	if v, ok := lookupField(node, codeKeys); ok {
		code = asString(v)
	}
	if v, ok := lookupField(node, nameKeys); ok {
		name = asString(v)
	}
	if code == "" && name == "" {
		return
	}

	e := &Entry{Code: code, Name: name, Semester: semester, Source: node}

	ncode := textnorm.Normalize(code, true)
	nname := textnorm.Normalize(name, false)

	dup := false
	if ncode != "" {
		if _, ok := seen["C|"+ncode]; ok {
			dup = true
		}
		seen["C|"+ncode] = struct{}{}
		ix.ByCode[ncode] = e
	}
	if nname != "" {
		if _, ok := seen["N|"+nname]; ok {
			dup = true
		}
		seen["N|"+nname] = struct{}{}
		if _, exists := ix.ByName[nname]; !exists {
			ix.nameOrder = append(ix.nameOrder, nname)
		}
		ix.ByName[nname] = e
	}
	if !dup {
		ix.Entries = append(ix.Entries, e)
	}
	if e.Semester > ix.MaxSemester {
		ix.MaxSemester = e.Semester
	}
}

// semesterField reads an explicit semester-like field off a node.
func semesterField(node map[string]any) (int, bool) {
	v, ok := lookupField(node, semesterKeys)
	if !ok {
		return 0, false
	}
	f, ok := asNumber(v)
	if !ok {
		return 0, false
	}
	sem := int(f)
	if sem < 1 || sem > 20 {
		return 0, false
	}
	return sem, true
}

// planField reads an explicit total-semesters figure off a node.
func planField(node map[string]any) (int, bool) {
	v, ok := lookupField(node, planKeys)
	if !ok {
		return 0, false
	}
	f, ok := asNumber(v)
	if !ok {
		return 0, false
	}
	total := int(f)
	if total < 1 || total > 20 {
		return 0, false
	}
	return total, true
}

// semesterFromKey infers a semester from a container key: either a purely
// numeric key or a semester-like token with a digit run, both bounded to
// 1..maxKeySemester so unrelated numeric keys are not misread.
func semesterFromKey(key string) (int, bool) {
	nk := textnorm.Normalize(key, true)
	if nk == "" {
		return 0, false
	}
	digits := firstDigits(nk)
	if digits == "" {
		return 0, false
	}
	if nk != digits {
		tagged := false
		for _, cand := range semesterKeys {
			if strings.Contains(nk, cand) {
				tagged = true
				break
			}
		}
		if !tagged {
			return 0, false
		}
	}
	sem := 0
	for _, r := range digits {
		sem = sem*10 + int(r-'0')
		if sem > 99 {
			return 0, false
		}
	}
	if sem < 1 || sem > maxKeySemester {
		return 0, false
	}
	return sem, true
}
