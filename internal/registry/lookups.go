package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ArnholdInstitute/dhis2ingestion/pkg/factor"
)

func compileSearch(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("registry: bad group search pattern %q: %w", pattern, err)
	}
	return re, nil
}

// KnownTypeRecord fetches a record from a known collection, e.g.
// ("dataElements", id). Returns ErrNotFound when the registry has no
// such record.
func (c *Client) KnownTypeRecord(ctx context.Context, collection, id string) (*NamedObject, error) {
	var obj NamedObject
	if err := c.getJSON(ctx, "/api/"+collection+"/"+id, &obj); err != nil {
		return nil, err
	}
	if obj.ID == "" {
		obj.ID = id
	}
	return &obj, nil
}

// IdentifiableObject looks an id up without knowing its collection. The
// returned object's Collection field names the collection discovered
// from the record's self link.
func (c *Client) IdentifiableObject(ctx context.Context, id string) (*NamedObject, error) {
	var obj NamedObject
	if err := c.getJSON(ctx, "/api/identifiableObjects/"+id, &obj); err != nil {
		return nil, err
	}
	if obj.Href == "" {
		return nil, ErrNotFound
	}
	obj.Collection = collectionFromHref(obj.Href)
	return &obj, nil
}

// Indicator fetches one indicator's full record.
func (c *Client) Indicator(ctx context.Context, id string) (*Indicator, error) {
	var ind Indicator
	if err := c.getJSON(ctx, "/api/indicators/"+id, &ind); err != nil {
		return nil, err
	}
	if ind.ID == "" {
		ind.ID = id
	}
	return &ind, nil
}

// IndicatorTypeFactors builds the map from indicator type id to its
// denominator scale factor. Types are things like "Number", "Percent",
// or "Per thousand"; when a type record carries no explicit factor the
// factor is read out of its display name, defaulting to 1.
func (c *Client) IndicatorTypeFactors(ctx context.Context) (map[string]int64, error) {
	var listing struct {
		IndicatorTypes []struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"indicatorTypes"`
	}
	if err := c.getJSON(ctx, "/api/indicatorTypes", &listing); err != nil {
		return nil, fmt.Errorf("registry: list indicator types: %w", err)
	}
	if listing.IndicatorTypes == nil {
		return nil, fmt.Errorf("registry: system misconfigured? missing indicatorTypes")
	}

	factors := make(map[string]int64, len(listing.IndicatorTypes))
	for _, it := range listing.IndicatorTypes {
		if it.ID == "" {
			continue
		}
		var record struct {
			Factor      *int64 `json:"factor"`
			DisplayName string `json:"displayName"`
		}
		if err := c.getJSON(ctx, "/api/indicatorTypes/"+it.ID, &record); err != nil {
			return nil, fmt.Errorf("registry: indicator type %s: %w", it.ID, err)
		}
		switch {
		case record.Factor != nil:
			factors[it.ID] = *record.Factor
		default:
			name := record.DisplayName
			if name == "" {
				name = it.DisplayName
			}
			if n, ok := factor.Extract(name, false); ok {
				factors[it.ID] = n
			} else {
				factors[it.ID] = 1
			}
		}
	}
	return factors, nil
}

// GroupMembers resolves a group id to its display name, element
// collection, and ordered member ids. Works for indicatorGroups and
// dataElementGroups alike; the caller decides what to do with
// non-indicator groups.
func (c *Client) GroupMembers(ctx context.Context, groupID string) (*Group, error) {
	obj, err := c.IdentifiableObject(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("registry: group %s not found in registry: %w", groupID, err)
	}

	raw := make(map[string]json.RawMessage)
	if err := c.getJSON(ctx, "/api/"+obj.Collection+"/"+groupID, &raw); err != nil {
		return nil, fmt.Errorf("registry: group %s: %w", groupID, err)
	}

	var displayName string
	if err := json.Unmarshal(raw["displayName"], &displayName); err != nil || displayName == "" {
		return nil, fmt.Errorf("registry: group %s does not have valid metadata", groupID)
	}

	// "indicatorGroups" members live under the "indicators" key.
	elementType := strings.Replace(obj.Collection, "Group", "", 1)
	var members []Ref
	if rawMembers, ok := raw[elementType]; ok {
		if err := json.Unmarshal(rawMembers, &members); err != nil {
			return nil, fmt.Errorf("registry: group %s member list: %w", groupID, err)
		}
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}

	return &Group{
		ID:          groupID,
		DisplayName: displayName,
		ElementType: elementType,
		MemberIDs:   ids,
	}, nil
}

// SearchGroups returns every indicator group whose display name matches
// the given case-insensitive pattern.
func (c *Client) SearchGroups(ctx context.Context, pattern string) ([]GroupRef, error) {
	re, err := compileSearch(pattern)
	if err != nil {
		return nil, err
	}
	var listing struct {
		IndicatorGroups []GroupRef `json:"indicatorGroups"`
	}
	if err := c.getJSON(ctx, "/api/indicatorGroups.json?paging=false", &listing); err != nil {
		return nil, fmt.Errorf("registry: list indicator groups: %w", err)
	}
	var matched []GroupRef
	for _, g := range listing.IndicatorGroups {
		if re.MatchString(g.DisplayName) {
			matched = append(matched, g)
		}
	}
	return matched, nil
}
