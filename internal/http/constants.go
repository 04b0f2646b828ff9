package httpx

// Route names of the console. They double as the view identifiers returned in
// view descriptors.
const (
	RouteLogin        = "login"
	RouteHome         = "home"
	RouteDashboard    = "dashboard"
	RouteTickets      = "tickets"
	RouteCreateTicket = "create-ticket"
	RouteTicketDetail = "ticket-detail"
	RouteUsers        = "users"
	RouteCategories   = "categories"
	RouteProfile      = "profile"
	RouteSettings     = "settings"
)

// maxNavigationHops bounds redirect chains followed by Navigate.
const maxNavigationHops = 8
