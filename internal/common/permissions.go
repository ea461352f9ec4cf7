package common

// FilePermissionSecure is used for files that may hold credentials, such as dwh.cfg
const FilePermissionSecure = 0600
