// Package navigation describes the dashboard and profile menus and the
// social links. Icons are a closed set of identifiers the frontend maps to
// its own icon components.
package navigation

import "fmt"

// IconID names an icon. Unknown identifiers are rejected.
type IconID string

const (
	IconLayoutDashboard IconID = "layout-dashboard"
	IconFileText        IconID = "file-text"
	IconBuilding        IconID = "building-2"
	IconNewspaper       IconID = "newspaper"
	IconImages          IconID = "images"
	IconArrowLeftRight  IconID = "arrow-left-right"
	IconUsers           IconID = "users"
	IconUserRoundPen    IconID = "user-round-pen"
	IconCircleUserRound IconID = "circle-user-round"
	IconContact         IconID = "contact"
	IconMessageSquare   IconID = "message-square"
	IconHouse           IconID = "house"
	IconUser            IconID = "user"
	IconCreditCard      IconID = "credit-card"
	IconMapPin          IconID = "map-pin"
	IconShield          IconID = "shield"
	IconUserPen         IconID = "user-pen"
	IconLifeBuoy        IconID = "life-buoy"
	IconFacebook        IconID = "facebook"
	IconInstagram       IconID = "instagram"
	IconTiktok          IconID = "tiktok"
	IconYoutube         IconID = "youtube"
	IconCoffee          IconID = "coffee"
	IconTruck           IconID = "truck"
	IconSparkles        IconID = "sparkles"
	IconHeart           IconID = "heart"
)

var icons = map[IconID]string{
	IconLayoutDashboard: "LayoutDashboard",
	IconFileText:        "FileText",
	IconBuilding:        "Building2",
	IconNewspaper:       "Newspaper",
	IconImages:          "Images",
	IconArrowLeftRight:  "ArrowLeftRight",
	IconUsers:           "Users",
	IconUserRoundPen:    "UserRoundPen",
	IconCircleUserRound: "CircleUserRound",
	IconContact:         "Contact",
	IconMessageSquare:   "MessageSquare",
	IconHouse:           "House",
	IconUser:            "User",
	IconCreditCard:      "CreditCard",
	IconMapPin:          "MapPin",
	IconShield:          "Shield",
	IconUserPen:         "UserPen",
	IconLifeBuoy:        "LifeBuoy",
	IconFacebook:        "Facebook",
	IconInstagram:       "Instagram",
	IconTiktok:          "FaTiktok",
	IconYoutube:         "Youtube",
	IconCoffee:          "Coffee",
	IconTruck:           "Truck",
	IconSparkles:        "Sparkles",
	IconHeart:           "Heart",
}

func (i IconID) Valid() bool {
	_, ok := icons[i]
	return ok
}

// Component is the frontend component name for the icon.
func (i IconID) Component() string {
	return icons[i]
}

// ParseIcon validates a raw identifier.
func ParseIcon(raw string) (IconID, error) {
	id := IconID(raw)
	if !id.Valid() {
		return "", fmt.Errorf("unknown icon %q", raw)
	}
	return id, nil
}

// Icons lists every known identifier with its component name.
func Icons() map[IconID]string {
	out := make(map[IconID]string, len(icons))
	for k, v := range icons {
		out[k] = v
	}
	return out
}

type SubItem struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type MenuItem struct {
	Label    string    `json:"label"`
	Href     string    `json:"href"`
	Icon     IconID    `json:"icon"`
	SubItems []SubItem `json:"sub_items,omitempty"`
}

// DashboardMenu is the admin sidebar.
func DashboardMenu() []MenuItem {
	return []MenuItem{
		{Label: "Dashboard", Href: "/dashboard", Icon: IconLayoutDashboard},
		{Label: "Pages", Href: "/dashboard/pages", Icon: IconFileText, SubItems: []SubItem{
			{Label: "Home", Href: "/dashboard/pages/home"},
			{Label: "About", Href: "/dashboard/pages/about"},
			{Label: "Services", Href: "/dashboard/pages/services"},
			{Label: "Daily", Href: "/dashboard/pages/daily"},
			{Label: "Apps", Href: "/dashboard/pages/apps"},
			{Label: "Ongkir", Href: "/dashboard/pages/ongkir"},
		}},
		{Label: "Products", Href: "/dashboard/products", Icon: IconBuilding, SubItems: []SubItem{
			{Label: "Products", Href: "/dashboard/products/products"},
			{Label: "Category", Href: "/dashboard/products/categories"},
			{Label: "Size", Href: "/dashboard/products/size"},
			{Label: "Banner", Href: "/dashboard/products/banner"},
		}},
		{Label: "Blog", Href: "/dashboard/blog", Icon: IconNewspaper},
		{Label: "Gallery", Href: "/dashboard/gallery", Icon: IconImages},
		{Label: "Transaksi", Href: "/dashboard/transaction", Icon: IconArrowLeftRight, SubItems: []SubItem{
			{Label: "Transaksi", Href: "/dashboard/transaction/transaction"},
			{Label: "Pending", Href: "/dashboard/transaction/pending"},
			{Label: "Delivery", Href: "/dashboard/transaction/delivery"},
			{Label: "Success", Href: "/dashboard/transaction/success"},
		}},
		{Label: "Testimonials", Href: "/dashboard/testimonials", Icon: IconUsers},
		{Label: "Profile", Href: "/dashboard/profile", Icon: IconUserRoundPen},
		{Label: "Users", Href: "/dashboard/users", Icon: IconCircleUserRound},
		{Label: "Contact", Href: "/dashboard/contact", Icon: IconContact},
		{Label: "Messages", Href: "/dashboard/messages", Icon: IconMessageSquare},
		{Label: "Back Home", Href: "/", Icon: IconHouse},
	}
}

// ProfileMenu is the customer account sidebar.
func ProfileMenu() []MenuItem {
	return []MenuItem{
		{Label: "Overview", Href: "/profile", Icon: IconUser},
		{Label: "Transaksi", Href: "/profile/transaction", Icon: IconCreditCard, SubItems: []SubItem{
			{Label: "Transaksi", Href: "/profile/transaction"},
			{Label: "Pending", Href: "/profile/transaction/pending"},
			{Label: "Delivery", Href: "/profile/transaction/delivery"},
			{Label: "Success", Href: "/profile/transaction/success"},
			{Label: "Canceled", Href: "/profile/transaction/canceled"},
		}},
		{Label: "Alamat", Href: "/profile/address", Icon: IconMapPin},
		{Label: "Security", Href: "/profile/security", Icon: IconShield, SubItems: []SubItem{
			{Label: "Password", Href: "/profile/security/password"},
			{Label: "Delete Account", Href: "/profile/security/delete"},
		}},
		{Label: "Profile", Href: "/profile/settings", Icon: IconUserPen},
		{Label: "Support", Href: "/profile/support", Icon: IconLifeBuoy, SubItems: []SubItem{
			{Label: "Help", Href: "/profile/support/help"},
			{Label: "Contact", Href: "/profile/support/contact"},
			{Label: "FAQ", Href: "/profile/support/faq"},
		}},
	}
}

type SocialLink struct {
	Icon IconID `json:"icon"`
	Href string `json:"href"`
}

// SocialURLs are the configured social profile addresses.
type SocialURLs struct {
	Facebook  string
	Instagram string
	Tiktok    string
	Youtube   string
}

// SocialLinks returns the configured links in display order, skipping blanks.
func SocialLinks(urls SocialURLs) []SocialLink {
	all := []SocialLink{
		{Icon: IconFacebook, Href: urls.Facebook},
		{Icon: IconInstagram, Href: urls.Instagram},
		{Icon: IconTiktok, Href: urls.Tiktok},
		{Icon: IconYoutube, Href: urls.Youtube},
	}
	out := make([]SocialLink, 0, len(all))
	for _, l := range all {
		if l.Href != "" {
			out = append(out, l)
		}
	}
	return out
}
