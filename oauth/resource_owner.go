package oauth

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// LinkedInResourceOwner is a LinkedIn member profile. It is immutable;
// accessors never fail and return zero values for missing fields.
type LinkedInResourceOwner struct {
	doc map[string]any
}

var _ ResourceOwner = (*LinkedInResourceOwner)(nil)

// NewLinkedInResourceOwner wraps a decoded profile document.
func NewLinkedInResourceOwner(doc map[string]any) *LinkedInResourceOwner {
	if doc == nil {
		doc = map[string]any{}
	}
	return &LinkedInResourceOwner{doc: doc}
}

// ID returns "id" exactly as decoded: a string, or a json.Number for
// numeric ids.
func (o *LinkedInResourceOwner) ID() any {
	return o.doc["id"]
}

// IDString returns the id formatted as a string, or "" if absent.
func (o *LinkedInResourceOwner) IDString() string {
	switch v := o.doc["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// FirstName returns "firstName". Localized objects
// ({"localized":{"en_US":"Ann"},"preferredLocale":{...}}) resolve to the
// preferred locale, falling back to "localizedFirstName".
func (o *LinkedInResourceOwner) FirstName() string {
	return o.localized("firstName", "localizedFirstName")
}

// LastName returns "lastName", resolved like FirstName.
func (o *LinkedInResourceOwner) LastName() string {
	return o.localized("lastName", "localizedLastName")
}

// Name joins first and last name.
func (o *LinkedInResourceOwner) Name() string {
	return strings.TrimSpace(o.FirstName() + " " + o.LastName())
}

// ImageURL returns "profilePicture" when it is a URL string. For the
// projected form ("displayImage~" with elements) the largest rendition,
// which LinkedIn lists last, is returned.
func (o *LinkedInResourceOwner) ImageURL() string {
	switch v := o.doc["profilePicture"].(type) {
	case string:
		return v
	case map[string]any:
		elements, _ := lookupPath(v, []string{"displayImage~", "elements"}).([]any)
		for i := len(elements) - 1; i >= 0; i-- {
			ids, _ := lookupPath(elements[i], []string{"identifiers"}).([]any)
			if len(ids) == 0 {
				continue
			}
			if u, ok := lookupPath(ids[0], []string{"identifier"}).(string); ok {
				return u
			}
		}
	}
	return ""
}

// Email returns "emailAddress" when the provider merged it into the profile.
func (o *LinkedInResourceOwner) Email() string {
	s, _ := o.doc["emailAddress"].(string)
	return s
}

// Attribute returns the value at a dotted path such as "extra.inner".
// Every dot separates a level, so keys containing dots are unreachable.
// Missing segments at any depth yield nil.
func (o *LinkedInResourceOwner) Attribute(path string) any {
	return lookupPath(o.doc, strings.Split(path, "."))
}

// ToMap returns a shallow copy of the profile document.
func (o *LinkedInResourceOwner) ToMap() map[string]any {
	out := make(map[string]any, len(o.doc))
	for k, v := range o.doc {
		out[k] = v
	}
	return out
}

// UserInfo projects the profile onto the provider-agnostic UserInfo.
func (o *LinkedInResourceOwner) UserInfo() *UserInfo {
	return &UserInfo{
		ID:        o.IDString(),
		Email:     o.Email(),
		Name:      o.Name(),
		FirstName: o.FirstName(),
		LastName:  o.LastName(),
		Picture:   o.ImageURL(),
		Provider:  LinkedInProviderName,
		Raw:       o.ToMap(),
	}
}

func (o *LinkedInResourceOwner) localized(key, fallback string) string {
	switch v := o.doc[key].(type) {
	case string:
		return v
	case map[string]any:
		localized, _ := v["localized"].(map[string]any)
		if pref, ok := v["preferredLocale"].(map[string]any); ok {
			lang, _ := pref["language"].(string)
			country, _ := pref["country"].(string)
			if s, ok := localized[lang+"_"+country].(string); ok {
				return s
			}
		}
		keys := make([]string, 0, len(localized))
		for k := range localized {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := localized[k].(string); ok {
				return s
			}
		}
	}
	s, _ := o.doc[fallback].(string)
	return s
}

// lookupPath descends through nested objects, returning nil on any miss.
func lookupPath(node any, segments []string) any {
	current := node
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		if current, ok = m[seg]; !ok {
			return nil
		}
	}
	return current
}
