package audit

import "strings"

// ActionResource holds action and resource derived from a gRPC full method name.
type ActionResource struct {
	Action   string
	Resource string
}

// ParseFullMethod returns action and resource for a gRPC full method (e.g. /aumigo.admin.v1.AdminService/ListUsers).
// Action is a verb: get, list, create, update, delete, or a lowercase method name for others.
// Resource is derived from the service name (e.g. AdminService -> admin).
func ParseFullMethod(fullMethod string) ActionResource {
	// fullMethod format: /aumigo.package.v1.ServiceName/MethodName
	slash := strings.LastIndex(fullMethod, "/")
	if slash < 0 {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	method := fullMethod[slash+1:]
	beforeSlash := fullMethod[:slash]
	dot := strings.LastIndex(beforeSlash, ".")
	if dot < 0 {
		return ActionResource{Action: strings.ToLower(method), Resource: "unknown"}
	}
	return ActionResource{Action: methodToAction(method), Resource: serviceToResource(beforeSlash[dot+1:])}
}

func serviceToResource(serviceName string) string {
	s := strings.TrimSuffix(serviceName, "Service")
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s[0:1]) + s[1:]
}

func methodToAction(method string) string {
	switch {
	case strings.HasPrefix(method, "Get") && method != "Get":
		return "get"
	case strings.HasPrefix(method, "List"):
		return "list"
	case strings.HasPrefix(method, "Create"):
		return "create"
	case strings.HasPrefix(method, "Update"), strings.HasPrefix(method, "Complete"):
		return "update"
	case strings.HasPrefix(method, "Delete"), strings.HasPrefix(method, "Deactivate"):
		return "delete"
	case strings.HasPrefix(method, "Register"):
		return "register"
	case strings.HasPrefix(method, "Validate"):
		return "validate"
	case method == "Me":
		return "get"
	default:
		return strings.ToLower(method)
	}
}
