package entities

import (
	"regexp"
	"sort"
	"strings"
)

// validTermRegex allows lowercase alphanumeric and underscores, starting with a letter.
var validTermRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Vocabulary is an extensible allow-list of terms backing an open enumeration
// such as relationship types or conflict subjects.
type Vocabulary struct {
	terms map[string]struct{}
}

// NewVocabulary creates a vocabulary seeded with the given terms.
// Terms that do not normalize to a valid name are skipped.
func NewVocabulary(terms ...string) Vocabulary {
	v := Vocabulary{terms: make(map[string]struct{}, len(terms))}
	for _, t := range terms {
		if n := NormalizeTerm(t); validTermRegex.MatchString(n) {
			v.terms[n] = struct{}{}
		}
	}
	return v
}

// NormalizeTerm lowercases and trims a vocabulary term.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// Contains reports whether the normalized term is part of the vocabulary.
func (v Vocabulary) Contains(term string) bool {
	_, ok := v.terms[NormalizeTerm(term)]
	return ok
}

// Terms returns the vocabulary sorted alphabetically.
func (v Vocabulary) Terms() []string {
	out := make([]string, 0, len(v.terms))
	for t := range v.terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// with returns a copy of v extended with term. The receiver is never modified
// so snapshots that share a vocabulary stay immutable.
func (v Vocabulary) with(term string) Vocabulary {
	out := Vocabulary{terms: make(map[string]struct{}, len(v.terms)+1)}
	for t := range v.terms {
		out.terms[t] = struct{}{}
	}
	out.terms[term] = struct{}{}
	return out
}

// DefaultRelationTypes is the built-in relationship type vocabulary.
var DefaultRelationTypes = []RelationType{
	RelationLove,
	RelationEnmity,
	RelationKinship,
	RelationRivalry,
	RelationAlliance,
	RelationMentorship,
	RelationOther,
}

// DefaultConflictSubjects is the built-in conflict subject vocabulary.
var DefaultConflictSubjects = []ConflictSubject{
	SubjectValue,
	SubjectResource,
	SubjectPower,
	SubjectIdentity,
	SubjectRelationship,
	SubjectInformation,
	SubjectSurvival,
	SubjectOther,
}

func defaultRelationVocabulary() Vocabulary {
	terms := make([]string, len(DefaultRelationTypes))
	for i, t := range DefaultRelationTypes {
		terms[i] = string(t)
	}
	return NewVocabulary(terms...)
}

func defaultSubjectVocabulary() Vocabulary {
	terms := make([]string, len(DefaultConflictSubjects))
	for i, s := range DefaultConflictSubjects {
		terms[i] = string(s)
	}
	return NewVocabulary(terms...)
}
