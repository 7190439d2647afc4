package tool

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
)

// rejectInterface filters interfaces a LAN client cannot reach us through.
func rejectInterface(iface *net.Interface) bool {
	if iface.Flags&net.FlagUp == 0 {
		return true
	}
	if iface.Flags&net.FlagLoopback != 0 {
		return true
	}
	if iface.Flags&net.FlagPointToPoint != 0 {
		return true // utun / tun / vpn
	}
	return false
}

// GetLocalIPv4List returns the non-loopback IPv4 addresses of usable interfaces, sorted.
func GetLocalIPv4List() []string {
	var result []string
	ifaces, err := net.Interfaces()
	if err != nil {
		return result
	}
	for i := range ifaces {
		iface := &ifaces[i]
		if rejectInterface(iface) {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP == nil || ipnet.IP.IsLoopback() {
				continue
			}
			if ipv4 := ipnet.IP.To4(); ipv4 != nil {
				result = append(result, ipv4.String())
			}
		}
	}
	sort.Strings(result)
	return result
}

// BaseURL returns publicURL when set, otherwise http://<first LAN address>:<port>.
func BaseURL(publicURL string, port int) string {
	if publicURL != "" {
		return strings.TrimSuffix(publicURL, "/")
	}
	host := "127.0.0.1"
	if ips := GetLocalIPv4List(); len(ips) > 0 {
		host = ips[0]
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// BuildZipDownloadURL builds the /download/zip URL for a folder.
func BuildZipDownloadURL(baseURL, folderName string) string {
	return strings.TrimSuffix(baseURL, "/") + "/download/zip/" + url.PathEscape(folderName)
}
