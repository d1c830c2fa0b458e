package entitlements

// Course is a dashboard course unlocked by a minimum tier.
type Course struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	RequiredTier Tier   `json:"required_tier"`
}

// CourseAccess is a course as seen by a particular account.
type CourseAccess struct {
	Course
	Unlocked bool `json:"unlocked"`
}

var catalog = []Course{
	{
		Slug:         "sop-playbook",
		Title:        "SOP Playbook",
		Description:  "Document and delegate the repeatable parts of your business.",
		RequiredTier: TierSOP,
	},
	{
		Slug:         "chief-ai-officer",
		Title:        "Chief AI Officer",
		Description:  "Roll out AI workflows across a client organisation.",
		RequiredTier: TierCAIO,
	},
	{
		Slug:         "launchpad-accelerator",
		Title:        "Launchpad Accelerator",
		Description:  "Package, price and sell an AI consulting offer.",
		RequiredTier: TierLaunchpad,
	},
}

// Courses returns a copy of the course catalog.
func Courses() []Course {
	out := make([]Course, len(catalog))
	copy(out, catalog)
	return out
}

// CourseBySlug looks up a course in the catalog.
func CourseBySlug(slug string) (Course, bool) {
	for _, c := range catalog {
		if c.Slug == slug {
			return c, true
		}
	}
	return Course{}, false
}

// CoursesFor annotates the catalog with the holder's access.
func CoursesFor(h Holder) []CourseAccess {
	out := make([]CourseAccess, 0, len(catalog))
	for _, c := range catalog {
		out = append(out, CourseAccess{Course: c, Unlocked: HasAccess(h, c.RequiredTier)})
	}
	return out
}
