package lifecycle

// MarkNotificationRead — односторонний идемпотентный переход unread → read.
func MarkNotificationRead(read bool) (next bool, changed bool) {
	return true, !read
}
