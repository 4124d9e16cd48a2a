package internal

import (
	"fmt"
	"log"
	"os"
	"os/user"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/earthboundkid/versioninfo/v2"
)

var sensitiveRegex = regexp.MustCompile(`(?i)(PASSWORD|API_KEY|ACCESS_KEY|SECRET|TOKEN|WEBHOOK)`)

// Diagnostics logs the build, process and environment details at start-up.
func Diagnostics() {
	ShowVersion()
	UserInfo()
	EnvironmentVars()
}

func ShowVersion() {
	log.Printf("Version: %s\n", versioninfo.Short())
	if !versioninfo.LastCommit.IsZero() {
		log.Printf("Last commit: %s (dirty=%t)\n", versioninfo.LastCommit.Format("2006-01-02 15:04:05"), versioninfo.DirtyBuild)
	}
}

func EnvironmentVars() {
	log.Println("Environment variables")

	environ := os.Environ()
	sort.Slice(environ, func(i, j int) bool {
		keyI, _, _ := strings.Cut(environ[i], "=")
		keyJ, _, _ := strings.Cut(environ[j], "=")
		return keyI < keyJ
	})

	for _, entry := range environ {
		key, value, _ := strings.Cut(entry, "=")
		log.Printf("  %s: %s\n", key, mask(key, value))
	}
}

func mask(key, value string) string {
	if sensitiveRegex.MatchString(key) {
		return "********"
	}
	return value
}

func UserInfo() {
	log.Printf("PID: %d", os.Getpid())
	currentUser, err := user.Current()
	if err != nil {
		log.Printf("Error getting current user: %v", err)
	} else {
		log.Printf("User: uid=%s(%s) gid=%s", currentUser.Uid, currentUser.Username, currentUser.Gid)
	}
	groups, err := os.Getgroups()
	if err != nil {
		log.Printf("Error getting groups: %v", err)
		return
	}
	groupNames := make([]string, 0, len(groups))
	for _, gid := range groups {
		group, err := user.LookupGroupId(strconv.Itoa(gid))
		if err != nil {
			groupNames = append(groupNames, strconv.Itoa(gid)) // Append ID if name lookup fails
		} else {
			groupNames = append(groupNames, fmt.Sprintf("%s(%s)", group.Name, group.Gid))
		}
	}
	log.Printf("Groups: %v", groupNames)
}
