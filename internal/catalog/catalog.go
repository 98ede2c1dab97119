// Package catalog holds the static feature descriptors the workshop scopes
// against. The core treats ids as opaque; the catalog exists for id
// validation and client display.
package catalog

// Feature is one candidate item on the scoping board.
type Feature struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var features = []Feature{
	{ID: 1, Title: "Custom Color Theme", Description: "Let users personalize their profile with custom colors"},
	{ID: 2, Title: "Multiple Photo Upload", Description: "Allow users to upload and showcase multiple profile photos"},
	{ID: 3, Title: "Light/Dark Mode Toggle", Description: "Theme switcher for better user experience"},
	{ID: 4, Title: "Extended Bio Length", Description: "Increase bio character limit from 150 to 500 characters"},
	{ID: 5, Title: "Custom Font Options", Description: "Multiple typography choices for profile text"},
	{ID: 6, Title: "Profile Verification Badge", Description: "Blue checkmark for verified accounts"},
	{ID: 7, Title: "Social Links Integration", Description: "Connect Instagram, Twitter, LinkedIn profiles"},
	{ID: 8, Title: "Profile Analytics", Description: "Show profile view count and engagement stats"},
	{ID: 9, Title: "Custom Profile URL", Description: "Let users choose their own profile URL slug"},
	{ID: 10, Title: "Profile Background Image", Description: "Add a banner/cover photo to profiles"},
	{ID: 11, Title: "Privacy Controls", Description: "Granular privacy settings for profile visibility"},
	{ID: 12, Title: "Profile Badges", Description: "Achievement and interest badges for profiles"},
	{ID: 13, Title: "Profile Video Introduction", Description: "Short video clips for personal introductions"},
	{ID: 14, Title: "Profile QR Code", Description: "Generate shareable QR codes for profiles"},
	{ID: 15, Title: "Profile Templates", Description: "Pre-designed profile layouts for different purposes"},
	{ID: 16, Title: "Profile Scheduling", Description: "Schedule profile updates and content rotation"},
	{ID: 17, Title: "Profile Translation", Description: "Automatic translation for international audiences"},
}

var byID = func() map[int]Feature {
	m := make(map[int]Feature, len(features))
	for _, f := range features {
		m[f.ID] = f
	}
	return m
}()

// Features returns the full ordered catalog.
func Features() []Feature {
	out := make([]Feature, len(features))
	copy(out, features)
	return out
}

// ByID looks up a feature descriptor.
func ByID(id int) (Feature, bool) {
	f, ok := byID[id]
	return f, ok
}

// EffortOptions is the coder's effort vocabulary, in ascending cost order.
func EffortOptions() []string {
	return []string{"1-2 days", "3-5 days", "1-2 weeks", "2+ weeks"}
}

// PriorityOptions is the PM's priority vocabulary.
func PriorityOptions() []string {
	return []string{"Must Have", "Nice to Have", "Post-Launch", "Not Needed"}
}

// ValidEffort reports whether s is a known effort value. Unknown values are
// accepted upstream; this only drives diagnostics.
func ValidEffort(s string) bool {
	for _, opt := range EffortOptions() {
		if s == opt {
			return true
		}
	}
	return false
}

// ValidPriority reports whether s is a known priority value.
func ValidPriority(s string) bool {
	for _, opt := range PriorityOptions() {
		if s == opt {
			return true
		}
	}
	return false
}
