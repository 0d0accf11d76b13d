package packing

import (
	"fmt"
	"strings"
)

// ValidateItem checks a single item specification.
func ValidateItem(item ItemSpec) error {
	if strings.TrimSpace(item.Name) == "" {
		return invalid("name", ErrInvalidItem)
	}
	if item.Width <= 0 || item.Height <= 0 || item.Depth <= 0 || item.Weight <= 0 {
		return invalid(item.Name, ErrInvalidItem)
	}
	return nil
}

// ValidateContainer checks a container specification.
func ValidateContainer(c ContainerSpec) error {
	if c.Width <= 0 || c.Height <= 0 || c.Depth <= 0 {
		return invalid("container", ErrInvalidContainer)
	}
	if c.MaxWeight < 0 {
		return invalid("container.maxWeight", ErrInvalidContainer)
	}
	return nil
}

// Normalize validates the request and fills defaults: Balanced for an empty
// strategy, DefaultContainerName for an unnamed container and DefaultMaxWeight
// for a zero weight capacity. The returned
// request is safe to use as a cache key source.
func (r Request) Normalize() (Request, error) {
	if err := ValidateContainer(r.Container); err != nil {
		return Request{}, err
	}
	if len(r.Items) == 0 {
		return Request{}, invalid("items", ErrNoItems)
	}

	seen := make(map[string]struct{}, len(r.Items))
	for _, item := range r.Items {
		if err := ValidateItem(item); err != nil {
			return Request{}, err
		}
		if _, dup := seen[item.Name]; dup {
			return Request{}, invalid(fmt.Sprintf("items[%s]", item.Name), ErrDuplicateItem)
		}
		seen[item.Name] = struct{}{}
	}

	if r.MaxAttempts < 1 {
		return Request{}, invalid("maxAttempts", ErrInvalidMaxAttempts)
	}

	strategy, err := ParseStrategy(string(r.Strategy))
	if err != nil {
		return Request{}, err
	}

	out := r
	out.Strategy = strategy
	out.Items = append([]ItemSpec(nil), r.Items...)
	if strings.TrimSpace(out.Container.Name) == "" {
		out.Container.Name = DefaultContainerName
	}
	if out.Container.MaxWeight == 0 {
		out.Container.MaxWeight = DefaultMaxWeight
	}
	return out, nil
}
